package kafka

import (
	"testing"
	"time"

	"github.com/couchcryptid/rainfall-trends/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeToMessage(t *testing.T) {
	msg, err := serializeToMessage("48453", domain.YearCount{Year: 2020, Count: 14})
	require.NoError(t, err)

	assert.Equal(t, []byte("48453:2020"), msg.Key)
	assert.JSONEq(t, `{"fips":"48453","year":2020,"count":14}`, string(msg.Value))

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "fips", msg.Headers[0].Key)
	assert.Equal(t, []byte("48453"), msg.Headers[0].Value)
	assert.Equal(t, "emitted_at", msg.Headers[1].Key)
	_, err = time.Parse(time.RFC3339, string(msg.Headers[1].Value))
	assert.NoError(t, err)
}
