// Package classifier assigns a sector label to a company symbol using a
// remote text-completion service.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "ndxcli/internal/errors"
	"ndxcli/internal/infrastructure"
	"ndxcli/internal/openai"
	"ndxcli/pkg/contracts/domain"
)

// CompletionClient is the subset of *openai.Client the classifier needs.
type CompletionClient interface {
	ChatCompletion(ctx context.Context, req openai.Request) (openai.CompletionResponse, error)
}

// Options configures a SectorClassifier.
type Options struct {
	// Model overrides the client's default model when set.
	Model string
	// ValidateLabels maps answers onto the sector enumeration, replacing
	// anything unrecognised with domain.SectorUnknown.
	ValidateLabels bool
	Logger         *slog.Logger
	Metrics        *infrastructure.PipelineMetrics
}

// SectorClassifier issues one completion request per Classify call.
// Answers are never cached.
type SectorClassifier struct {
	client  CompletionClient
	opts    Options
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// New creates a classifier around client.
func New(client CompletionClient, opts Options) *SectorClassifier {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SectorClassifier{
		client:  client,
		opts:    opts,
		logger:  infrastructure.WithComponent(logger, "classifier"),
		metrics: opts.Metrics,
	}
}

// Prompt returns the classification prompt for symbol.
func Prompt(symbol string) string {
	names := make([]string, len(domain.Sectors))
	for i, s := range domain.Sectors {
		names[i] = string(s)
	}
	return fmt.Sprintf("Classify company %s into one of the following sectors. Answer only with the sector name: %s.",
		symbol, strings.Join(names, ", "))
}

// Classify returns the trimmed answer of the service for symbol. Service
// failures are returned as ServiceErrors carrying the symbol.
func (c *SectorClassifier) Classify(ctx context.Context, symbol string) (string, error) {
	start := time.Now()
	resp, err := c.client.ChatCompletion(ctx, openai.Request{
		Model:       c.opts.Model,
		Messages:    []openai.Message{openai.UserMessage(Prompt(symbol))},
		Temperature: 0,
	})
	infrastructure.RecordCompletion(ctx, c.metrics, "classify", time.Since(start), err)
	if err != nil {
		if appErr, ok := apperrors.As(err); ok {
			return "", appErr.WithContext("symbol", symbol)
		}
		return "", apperrors.NewServiceError(fmt.Sprintf("classification failed for %s", symbol), err).
			WithContext("symbol", symbol)
	}

	label := strings.TrimSpace(resp.Content)
	if !domain.IsKnownSector(label) {
		infrastructure.RecordSectorDrift(ctx, c.metrics, label)
		c.logger.WarnContext(ctx, "sector_label_drift",
			slog.String("symbol", symbol),
			slog.String("label", label),
			slog.Bool("normalized", c.opts.ValidateLabels))
		if c.opts.ValidateLabels {
			label = string(domain.NormalizeSector(label))
		}
	}

	c.logger.DebugContext(ctx, "classification_complete",
		slog.String("symbol", symbol),
		slog.String("sector", label),
		slog.Duration("duration", time.Since(start)))

	return label, nil
}
