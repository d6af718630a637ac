package domain

import (
	"strings"
)

// Sector is one of the fixed categorical labels assigned per company.
type Sector string

const (
	SectorTechnology        Sector = "Technology"
	SectorConsumerCyclical  Sector = "Consumer Cyclical"
	SectorIndustrials       Sector = "Industrials"
	SectorUtilities         Sector = "Utilities"
	SectorHealthcare        Sector = "Healthcare"
	SectorCommunication     Sector = "Communication"
	SectorEnergy            Sector = "Energy"
	SectorConsumerDefensive Sector = "Consumer Defensive"
	SectorRealEstate        Sector = "Real Estate"
	SectorFinancial         Sector = "Financial"

	// SectorUnknown is only produced by label validation, never by the
	// remote service prompt.
	SectorUnknown Sector = "Unknown"
)

// Sectors lists the enumeration in prompt order.
var Sectors = []Sector{
	SectorTechnology,
	SectorConsumerCyclical,
	SectorIndustrials,
	SectorUtilities,
	SectorHealthcare,
	SectorCommunication,
	SectorEnergy,
	SectorConsumerDefensive,
	SectorRealEstate,
	SectorFinancial,
}

// String implements fmt.Stringer
func (s Sector) String() string {
	return string(s)
}

// IsKnownSector reports whether label is exactly one of the ten sectors.
func IsKnownSector(label string) bool {
	for _, s := range Sectors {
		if string(s) == label {
			return true
		}
	}
	return false
}

// NormalizeSector maps free text onto the closed enumeration. Matching is
// case-insensitive and ignores surrounding punctuation, a trailing
// "sector" word and common aliases; anything else becomes SectorUnknown.
func NormalizeSector(label string) Sector {
	key := sectorKey(label)
	if key == "" {
		return SectorUnknown
	}
	for _, s := range Sectors {
		if sectorKey(string(s)) == key {
			return s
		}
	}
	if s, ok := sectorAliases[key]; ok {
		return s
	}
	return SectorUnknown
}

var sectorAliases = map[string]Sector{
	"information technology": SectorTechnology,
	"tech":                   SectorTechnology,
	"consumer discretionary": SectorConsumerCyclical,
	"consumer staples":       SectorConsumerDefensive,
	"health care":            SectorHealthcare,
	"communication services": SectorCommunication,
	"communications":         SectorCommunication,
	"financials":             SectorFinancial,
	"financial services":     SectorFinancial,
	"industrial":             SectorIndustrials,
	"utility":                SectorUtilities,
	"realestate":             SectorRealEstate,
}

func sectorKey(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.Trim(s, " .,:;!\"'`*")
	s = strings.TrimSuffix(s, " sector")
	return strings.Join(strings.Fields(s), " ")
}

// SectorCount is one row of the sector value counts.
type SectorCount struct {
	Sector string `json:"sector"`
	Count  int    `json:"count"`
}
