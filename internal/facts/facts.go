// Package facts derives summary statistics from completed climate series.
package facts

import "github.com/couchcryptid/rainfall-trends/internal/domain"

// TemperatureFacts summarizes a yearly mean-temperature series. Nil fields
// mean the input was too small to derive them.
type TemperatureFacts struct {
	ChangePerYear      *float64
	ChangePerDecade    *float64
	WarmestYear        *domain.YearlyTemp
	ColdestYear        *domain.YearlyTemp
	FirstDecadeAverage *float64
	LastDecadeAverage  *float64
}

// RainfallFacts summarizes a wet-day count series.
type RainfallFacts struct {
	AverageWetDays *float64
	WettestYear    *domain.YearCount
	ChangePerYear  *float64
}

// Temperature derives facts from an ascending yearly temperature series.
func Temperature(data []domain.YearlyTemp) TemperatureFacts {
	if len(data) == 0 {
		return TemperatureFacts{}
	}

	warmest := data[0]
	coldest := data[0]
	for _, p := range data[1:] {
		if p.Avg > warmest.Avg {
			warmest = p
		}
		if p.Avg < coldest.Avg {
			coldest = p
		}
	}

	facts := TemperatureFacts{
		WarmestYear: &warmest,
		ColdestYear: &coldest,
	}

	first := data[0]
	last := data[len(data)-1]
	if yearsBetween := last.Year - first.Year; yearsBetween > 0 {
		perYear := (last.Avg - first.Avg) / float64(yearsBetween)
		perDecade := perYear * 10
		facts.ChangePerYear = &perYear
		facts.ChangePerDecade = &perDecade
	}

	window := min(10, len(data))
	firstAvg := averageTemps(data[:window])
	lastAvg := averageTemps(data[len(data)-window:])
	facts.FirstDecadeAverage = &firstAvg
	facts.LastDecadeAverage = &lastAvg

	return facts
}

// Rainfall derives facts from an ascending wet-day count series.
func Rainfall(data []domain.YearCount) RainfallFacts {
	if len(data) == 0 {
		return RainfallFacts{}
	}

	wettest := data[0]
	sum := 0
	for _, p := range data {
		if p.Count > wettest.Count {
			wettest = p
		}
		sum += p.Count
	}
	avg := float64(sum) / float64(len(data))

	facts := RainfallFacts{
		AverageWetDays: &avg,
		WettestYear:    &wettest,
	}

	first := data[0]
	last := data[len(data)-1]
	if yearsBetween := last.Year - first.Year; yearsBetween > 0 {
		perYear := float64(last.Count-first.Count) / float64(yearsBetween)
		facts.ChangePerYear = &perYear
	}

	return facts
}

func averageTemps(data []domain.YearlyTemp) float64 {
	sum := 0.0
	for _, p := range data {
		sum += p.Avg
	}
	return sum / float64(len(data))
}
