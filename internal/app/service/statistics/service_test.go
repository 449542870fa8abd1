package statistics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFillMissingDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rows := []DailyCount{
		{Date: "2026-03-08", Count: 3},
		{Date: "2026-03-10", Count: 1},
	}

	out := fillMissingDays(rows, now, 3)
	require.Len(t, out, 4)
	require.Equal(t, DailyCount{Date: "2026-03-07", Count: 0}, out[0])
	require.Equal(t, DailyCount{Date: "2026-03-08", Count: 3}, out[1])
	require.Equal(t, DailyCount{Date: "2026-03-09", Count: 0}, out[2])
	require.Equal(t, DailyCount{Date: "2026-03-10", Count: 1}, out[3])
}

func TestFillMissingDays_Empty(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	out := fillMissingDays(nil, now, 1)
	require.Len(t, out, 2)
	for _, d := range out {
		require.Zero(t, d.Count)
	}
}
