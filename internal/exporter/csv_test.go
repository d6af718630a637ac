package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ndxcli/pkg/contracts/domain"
)

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	content = bytes.TrimPrefix(content, utf8BOM)

	records, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	tests := []struct {
		name    string
		options WriteOptions
		want    [][]string
		wantBOM bool
	}{
		{
			name: "headers and records",
			options: WriteOptions{
				Headers: []string{"symbol", "ytd"},
				Records: [][]string{{"AAPL", "12.5"}, {"MSFT", "8.1"}},
			},
			want: [][]string{{"symbol", "ytd"}, {"AAPL", "12.5"}, {"MSFT", "8.1"}},
		},
		{
			name: "with BOM",
			options: WriteOptions{
				Headers:   []string{"symbol"},
				Records:   [][]string{{"TSLA"}},
				BOMPrefix: true,
			},
			want:    [][]string{{"symbol"}, {"TSLA"}},
			wantBOM: true,
		},
		{
			name: "quoted values",
			options: WriteOptions{
				Headers: []string{"name"},
				Records: [][]string{{"Alphabet, Inc."}},
			},
			want: [][]string{{"name"}, {"Alphabet, Inc."}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			w := NewCSVWriter(dir, nil)

			require.NoError(t, w.WriteCSV("nested/out.csv", tt.options))

			path := filepath.Join(dir, "nested", "out.csv")
			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(raw, utf8BOM))
			assert.Equal(t, tt.want, readCSV(t, path))
		})
	}
}

func TestCSVWriter_AppendToCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	require.NoError(t, w.WriteCSV("a.csv", WriteOptions{Headers: []string{"h"}, Records: [][]string{{"1"}}}))
	require.NoError(t, w.AppendToCSV("a.csv", [][]string{{"2"}}))

	assert.Equal(t, [][]string{{"h"}, {"1"}, {"2"}}, readCSV(t, filepath.Join(dir, "a.csv")))
}

func TestCSVWriter_WriteTable(t *testing.T) {
	table := &domain.MergedTable{
		Columns:  []string{"symbol", "name", "ytd"},
		Enriched: true,
		Records: []domain.CompanyRecord{
			{Symbol: "AAPL", Sector: "Technology", Values: []string{"AAPL", "Apple Inc.", "12.5"}},
			{Symbol: "TSLA", Sector: "Consumer Cyclical", Values: []string{"TSLA", "Tesla Inc", "-3.2"}},
		},
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "enriched.csv")
	require.NoError(t, NewCSVWriter("", nil).WriteTable(path, table))

	assert.Equal(t, [][]string{
		{"symbol", "name", "ytd", "Sector"},
		{"AAPL", "Apple Inc.", "12.5", "Technology"},
		{"TSLA", "Tesla Inc", "-3.2", "Consumer Cyclical"},
	}, readCSV(t, path))

	assert.Error(t, NewCSVWriter(dir, nil).WriteTable("x.csv", nil))
}

func TestCSVWriter_WriteSectorCounts(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	require.NoError(t, w.WriteSectorCounts("counts.csv", []domain.SectorCount{
		{Sector: "Technology", Count: 3},
		{Sector: "Energy", Count: 1},
	}))

	assert.Equal(t, [][]string{
		{"sector", "count"},
		{"Technology", "3"},
		{"Energy", "1"},
	}, readCSV(t, filepath.Join(dir, "counts.csv")))
}

func TestCSVWriter_ResolvePath(t *testing.T) {
	w := NewCSVWriter("/base", nil)
	assert.Equal(t, filepath.Join("/base", "x.csv"), w.resolvePath("x.csv"))
	assert.Equal(t, "/abs/x.csv", w.resolvePath("/abs/x.csv"))
	assert.Equal(t, "x.csv", NewCSVWriter("", nil).resolvePath("x.csv"))
}
