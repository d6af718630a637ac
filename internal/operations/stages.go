package operations

import (
	"context"
	"fmt"
	"log/slog"

	"ndxcli/pkg/contracts/domain"
)

// TableLoader reads and joins the two source files
type TableLoader interface {
	LoadAndMerge(ctx context.Context, constituentsPath, priceChangePath string) (*domain.MergedTable, error)
}

// TableEnricher adds a sector label to every record of a table
type TableEnricher interface {
	Enrich(ctx context.Context, table *domain.MergedTable) (*domain.MergedTable, error)
}

// Summarizer produces a recommendation for an enriched table
type Summarizer interface {
	Summarize(ctx context.Context, table *domain.MergedTable) (string, error)
}

// LoadStage loads both source files and stores the merged table
type LoadStage struct {
	BaseStage
	loader TableLoader
	logger *slog.Logger
}

// NewLoadStage creates the load Step
func NewLoadStage(loader TableLoader, logger *slog.Logger) *LoadStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoadStage{
		BaseStage: NewBaseStage(StageIDLoad, StageNameLoad, nil),
		loader:    loader,
		logger:    logger.With(slog.String("step", StageIDLoad)),
	}
}

// Validate requires both input paths
func (s *LoadStage) Validate(state *OperationState) error {
	if s.loader == nil {
		return fmt.Errorf("no table loader configured")
	}
	if state.GetConfigString(ConfigKeyConstituentsFile) == "" {
		return fmt.Errorf("%s is required", ConfigKeyConstituentsFile)
	}
	if state.GetConfigString(ConfigKeyPriceChangeFile) == "" {
		return fmt.Errorf("%s is required", ConfigKeyPriceChangeFile)
	}
	return nil
}

// Execute reads and joins the inputs
func (s *LoadStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(s.ID())

	table, err := s.loader.LoadAndMerge(ctx,
		state.GetConfigString(ConfigKeyConstituentsFile),
		state.GetConfigString(ConfigKeyPriceChangeFile))
	if err != nil {
		return err
	}

	state.SetContext(ContextKeyMergedTable, table)
	if stepState != nil {
		stepState.SetMetadata(MetadataKeyRecords, table.Len())
		stepState.UpdateProgress(100, fmt.Sprintf("Merged %d records", table.Len()))
	}
	s.logger.InfoContext(ctx, "table_loaded",
		slog.String("operation_id", state.ID),
		slog.Int("records", table.Len()))
	return nil
}

// EnrichStage classifies every record of the merged table
type EnrichStage struct {
	BaseStage
	enricher TableEnricher
	logger   *slog.Logger
}

// NewEnrichStage creates the enrich Step
func NewEnrichStage(enricher TableEnricher, logger *slog.Logger) *EnrichStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &EnrichStage{
		BaseStage: NewBaseStage(StageIDEnrich, StageNameEnrich, []string{StageIDLoad}),
		enricher:  enricher,
		logger:    logger.With(slog.String("step", StageIDEnrich)),
	}
}

// Validate requires the merged table
func (s *EnrichStage) Validate(state *OperationState) error {
	if s.enricher == nil {
		return fmt.Errorf("no enricher configured")
	}
	_, err := state.GetTable(ContextKeyMergedTable)
	return err
}

// Execute enriches the merged table
func (s *EnrichStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(s.ID())

	table, err := state.GetTable(ContextKeyMergedTable)
	if err != nil {
		return err
	}

	enriched, err := s.enricher.Enrich(ctx, table)
	if err != nil {
		return err
	}

	state.SetContext(ContextKeyEnrichedTable, enriched)
	if stepState != nil {
		stepState.SetMetadata(MetadataKeyRecords, enriched.Len())
		stepState.UpdateProgress(100, fmt.Sprintf("Classified %d records", enriched.Len()))
	}
	return nil
}

// RecommendStage asks for a recommendation on the enriched table
type RecommendStage struct {
	BaseStage
	summarizer Summarizer
	logger     *slog.Logger
}

// NewRecommendStage creates the recommend Step
func NewRecommendStage(summarizer Summarizer, logger *slog.Logger) *RecommendStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecommendStage{
		BaseStage:  NewBaseStage(StageIDRecommend, StageNameRecommend, []string{StageIDEnrich}),
		summarizer: summarizer,
		logger:     logger.With(slog.String("step", StageIDRecommend)),
	}
}

// Validate requires the enriched table
func (s *RecommendStage) Validate(state *OperationState) error {
	if s.summarizer == nil {
		return fmt.Errorf("no summarizer configured")
	}
	_, err := state.GetTable(ContextKeyEnrichedTable)
	return err
}

// Execute stores the recommendation text
func (s *RecommendStage) Execute(ctx context.Context, state *OperationState) error {
	stepState := state.GetStage(s.ID())

	table, err := state.GetTable(ContextKeyEnrichedTable)
	if err != nil {
		return err
	}

	text, err := s.summarizer.Summarize(ctx, table)
	if err != nil {
		return err
	}

	state.SetContext(ContextKeyRecommendation, text)
	if stepState != nil {
		stepState.SetMetadata(MetadataKeyRecords, table.Len())
		stepState.UpdateProgress(100, "Recommendation received")
	}
	s.logger.InfoContext(ctx, "recommendation_ready",
		slog.String("operation_id", state.ID),
		slog.Int("length", len(text)))
	return nil
}

// NewPipelineRegistry registers the load, enrich and recommend steps
func NewPipelineRegistry(loader TableLoader, enricher TableEnricher, summarizer Summarizer, logger *slog.Logger) (*Registry, error) {
	registry := NewRegistry()
	steps := []Step{
		NewLoadStage(loader, logger),
		NewEnrichStage(enricher, logger),
		NewRecommendStage(summarizer, logger),
	}
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return registry, nil
}
