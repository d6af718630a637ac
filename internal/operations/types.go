package operations

import (
	"time"
)

// Step identifiers
const (
	StageIDLoad      = "load"
	StageIDEnrich    = "enrich"
	StageIDRecommend = "recommend"
)

// Step names
const (
	StageNameLoad      = "Dataset Loading"
	StageNameEnrich    = "Sector Enrichment"
	StageNameRecommend = "Stock Recommendation"
)

// Context keys for operation state
const (
	ContextKeyMergedTable    = "merged_table"
	ContextKeyEnrichedTable  = "enriched_table"
	ContextKeyRecommendation = "recommendation"

	ConfigKeyConstituentsFile = "constituents_file"
	ConfigKeyPriceChangeFile  = "price_change_file"
)

// Default timeouts
const (
	DefaultStageTimeout     = 30 * time.Minute
	DefaultLoadTimeout      = 2 * time.Minute
	DefaultEnrichTimeout    = 60 * time.Minute
	DefaultRecommendTimeout = 10 * time.Minute
)

// OperationRequest represents a request to execute the pipeline
type OperationRequest struct {
	ID               string                 `json:"id"`
	ConstituentsFile string                 `json:"constituents_file"`
	PriceChangeFile  string                 `json:"price_change_file"`
	Parameters       map[string]interface{} `json:"parameters,omitempty"`
}

// OperationResponse represents the response from an operation execution
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Error    string                `json:"error,omitempty"`

	// State is the final operation state; steps' outputs are in its context.
	State *OperationState `json:"-"`
}
