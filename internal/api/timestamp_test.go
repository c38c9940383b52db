package api

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_Unmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{`"2024-05-06T07:08:09Z"`, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)},
		{`"2024-05-06T07:08:09+03:00"`, time.Date(2024, 5, 6, 4, 8, 9, 0, time.UTC)},
		{`"2024-05-06T07:08:09"`, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)},
		{`"2024-05-06T07:08:09.5"`, time.Date(2024, 5, 6, 7, 8, 9, 500_000_000, time.UTC)},
		{`"2024-05-06 07:08:09"`, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)},
		{`null`, time.Time{}},
		{`""`, time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.in), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v", ts.Time)
		})
	}
}

func TestTimestamp_RejectsGarbage(t *testing.T) {
	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}
