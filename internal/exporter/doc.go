// Package exporter writes pipeline results to CSV files.
//
// CSVWriter is the core writer, with optional append mode and a UTF-8 BOM
// for Excel compatibility. WriteTable exports an enriched table with its
// Sector column; WriteSectorCounts exports the sector value counts.
//
// Example usage:
//
//	w := exporter.NewCSVWriter("out", logger)
//	err := w.WriteTable("enriched.csv", table)
package exporter
