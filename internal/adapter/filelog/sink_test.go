package filelog

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/cafe/internal/domain"
)

func TestSink_AppendsJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cafe_log.json")
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), &domain.ActivityRecord{
		Timestamp: ts,
		State:     domain.Snapshot{TotalCustomers: 1, WaitingCustomers: 1, Waiting: domain.DrinkCount{Teas: 2}},
	}))
	require.NoError(t, s.Close())

	// Reopening appends rather than truncating.
	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), &domain.ActivityRecord{Timestamp: ts.Add(time.Second)}))
	require.NoError(t, s.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 2)

	assert.Equal(t, "2024-05-01T12:00:00.000Z", lines[0]["timestamp"])
	state := lines[0]["state"].(map[string]any)
	assert.Equal(t, float64(1), state["totalCustomers"])
	assert.Equal(t, map[string]any{"teas": float64(2), "coffees": float64(0)}, state["waitingArea"])
	assert.Equal(t, "2024-05-01T12:00:01.000Z", lines[1]["timestamp"])
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "cafe_log.json"))
	assert.Error(t, err)
}
