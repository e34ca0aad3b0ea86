package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStoreWithSamples(t *testing.T, cpus ...float64) Store {
	t.Helper()

	store, err := NewStore(newTestRepo(t), len(cpus)+1)
	require.NoError(t, err)

	ctx := context.Background()
	for i, c := range cpus {
		require.NoError(t, store.Enqueue(ctx, testSample(time.Duration(i)*time.Second, c)))
	}
	require.NoError(t, store.Flush(ctx))
	return store
}

func TestExportCSVWritesHeaderAndRows(t *testing.T) {
	store := newTestStoreWithSamples(t, 10, 20, 30)
	exp := NewExporter(store)

	var buf bytes.Buffer
	n, err := exp.ExportCSV(context.Background(), &buf, base, base.Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header + 3 veri satırı")
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "10", records[1][1], "cpu_pct kolonu")
	assert.Equal(t, "false", records[1][16], "degraded kolonu")
}

func TestExportCSVEmptyRangeOnlyHeader(t *testing.T) {
	store := newTestStoreWithSamples(t)
	exp := NewExporter(store)

	var buf bytes.Buffer
	n, err := exp.ExportCSV(context.Background(), &buf, base, base.Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Zero(t, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1, "boş aralık sadece header üretir")
}

func TestExportCSVDownsamples(t *testing.T) {
	store := newTestStoreWithSamples(t, 1, 2, 3, 4, 5, 6, 7, 8)
	exp := NewExporter(store)

	var buf bytes.Buffer
	n, err := exp.ExportCSV(context.Background(), &buf, base, base.Add(time.Hour), 4)
	require.NoError(t, err)
	assert.LessOrEqual(t, n, 4, "maxPoints nokta bütçesi aşılmamalı")
	assert.Positive(t, n)
}

func TestExportFile(t *testing.T) {
	store := newTestStoreWithSamples(t, 10, 20)
	exp := NewExporter(store)

	dir := t.TempDir()
	path, n, err := exp.ExportFile(context.Background(), dir, base, base.Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timestamp,cpu_pct")
}
