package purchases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamekey-bot/internal/market"
)

func TestEncodeDecodeKeys(t *testing.T) {
	keys := []market.OrderKey{
		{Serial: "ABCD-1234", Name: "Game X", Type: "steam"},
		{Serial: "EFGH-5678", Name: "Game X", Type: "steam"},
	}

	encoded, err := EncodeKeys(keys)
	require.NoError(t, err)
	assert.Contains(t, encoded, "ABCD-1234")

	decoded, err := DecodeKeys(encoded)
	require.NoError(t, err)
	assert.Equal(t, keys, decoded)
}

func TestDecodeKeysEmpty(t *testing.T) {
	decoded, err := DecodeKeys("")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestIsTerminal(t *testing.T) {
	testCases := []struct {
		status   string
		terminal bool
	}{
		{StatusCompleted, true},
		{StatusCancelled, true},
		{StatusRefunded, true},
		{StatusNew, false},
		{StatusProcessing, false},
		{"some-unknown-status", false},
	}
	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			assert.Equal(t, tc.terminal, IsTerminal(tc.status))
		})
	}
}
