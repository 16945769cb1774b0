package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseUserIDs(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want []int64
	}{
		{"empty means open allow-list", "", nil},
		{"single", "123", []int64{123}},
		{"multiple with spaces", "123, 456 ,789", []int64{123, 456, 789}},
		{"junk entries skipped", "123,abc,456", []int64{123, 456}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseUserIDs(tc.in))
		})
	}
}

func TestGetDuration(t *testing.T) {
	t.Setenv("TEST_POLL", "")
	assert.Equal(t, time.Minute, getduration("TEST_POLL", time.Minute))

	t.Setenv("TEST_POLL", "5s")
	assert.Equal(t, 5*time.Second, getduration("TEST_POLL", time.Minute))

	t.Setenv("TEST_POLL", "garbage")
	assert.Equal(t, time.Minute, getduration("TEST_POLL", time.Minute))
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitCSV("a, b,"))
	assert.Empty(t, splitCSV(""))
}
