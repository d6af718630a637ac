// Package report aggregates sector counts and renders the console output.
package report

import (
	"sort"

	"ndxcli/pkg/contracts/domain"
)

// CountSectors returns the value counts of the Sector column, highest
// count first, ties broken by label. Labels are counted verbatim.
func CountSectors(table *domain.MergedTable) []domain.SectorCount {
	if table == nil {
		return nil
	}

	counts := make(map[string]int)
	for _, r := range table.Records {
		counts[r.Sector]++
	}

	out := make([]domain.SectorCount, 0, len(counts))
	for sector, n := range counts {
		out = append(out, domain.SectorCount{Sector: sector, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Sector < out[j].Sector
	})
	return out
}

// Total sums the counts.
func Total(counts []domain.SectorCount) int {
	n := 0
	for _, c := range counts {
		n += c.Count
	}
	return n
}
