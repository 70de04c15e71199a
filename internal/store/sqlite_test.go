package store

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

type fakeReport struct {
	Target   string   `json:"target"`
	Keywords []string `json:"keywords"`
}

func TestSQLite_SaveAndGetScan(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	saved, err := st.SaveScan(ctx, "acme.io", ScanKeywords, fakeReport{
		Target:   "acme.io",
		Keywords: []string{"invoice matching"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.ID)

	got, err := st.GetScan(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme.io", got.Domain)
	assert.Equal(t, ScanKeywords, got.Kind)

	var report fakeReport
	require.NoError(t, json.Unmarshal(got.Payload, &report))
	assert.Equal(t, []string{"invoice matching"}, report.Keywords)
}

func TestSQLite_GetScan_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetScan(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get scan")
}

func TestSQLite_LatestScan(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	first, err := st.SaveScan(ctx, "acme.io", ScanCompetitors, fakeReport{Target: "acme.io"})
	require.NoError(t, err)
	second, err := st.SaveScan(ctx, "acme.io", ScanCompetitors, fakeReport{Target: "acme.io"})
	require.NoError(t, err)

	latest, err := st.LatestScan(ctx, "acme.io", ScanCompetitors)
	require.NoError(t, err)
	require.NotNil(t, latest)
	// Same-timestamp inserts tie-break on id; either way it is one of ours.
	assert.Contains(t, []string{first.ID, second.ID}, latest.ID)

	missing, err := st.LatestScan(ctx, "other.com", ScanCompetitors)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSQLite_LatestScan_KindScoped(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.SaveScan(ctx, "acme.io", ScanCompetitors, fakeReport{Target: "acme.io"})
	require.NoError(t, err)

	latest, err := st.LatestScan(ctx, "acme.io", ScanKeywords)
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestSQLite_ListScans(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, domain := range []string{"a.com", "a.com", "b.com"} {
		_, err := st.SaveScan(ctx, domain, ScanKeywords, fakeReport{Target: domain})
		require.NoError(t, err)
	}

	all, err := st.ListScans(ctx, ScanFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	filtered, err := st.ListScans(ctx, ScanFilter{Domain: "a.com"})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	limited, err := st.ListScans(ctx, ScanFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLite_DeleteScansBefore(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.SaveScan(ctx, "a.com", ScanKeywords, fakeReport{Target: "a.com"})
	require.NoError(t, err)

	n, err := st.DeleteScansBefore(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = st.DeleteScansBefore(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := st.ListScans(ctx, ScanFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}
