// Package recommendation asks the completion service for a narrative
// summary of the enriched table.
package recommendation

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"ndxcli/internal/config"
	apperrors "ndxcli/internal/errors"
	"ndxcli/internal/infrastructure"
	"ndxcli/internal/openai"
	"ndxcli/pkg/contracts/domain"
)

// CompletionClient is the subset of *openai.Client the recommender needs.
type CompletionClient interface {
	ChatCompletion(ctx context.Context, req openai.Request) (openai.CompletionResponse, error)
}

// Options configures a Recommender.
type Options struct {
	IndexName string
	Model     string
	Logger    *slog.Logger
	Metrics   *infrastructure.PipelineMetrics
}

// Recommender sends the whole table in a single prompt.
type Recommender struct {
	client CompletionClient
	opts   Options
	logger *slog.Logger
}

// New creates a Recommender. An empty IndexName defaults to Nasdaq-100.
func New(client CompletionClient, opts Options) *Recommender {
	if opts.IndexName == "" {
		opts.IndexName = config.DefaultIndexName
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Recommender{
		client: client,
		opts:   opts,
		logger: infrastructure.WithComponent(logger, "recommendation"),
	}
}

// Prompt builds the summary prompt for indexName around a serialized table.
func Prompt(indexName, table string) string {
	return fmt.Sprintf("Provide summary information about %s stock performance year to date (YTD), "+
		"recommending the three best sectors and three or more companies per sector. "+
		"Company data: %s", indexName, table)
}

// Summarize returns the trimmed summary text. The answer is free-form and
// is not validated.
func (r *Recommender) Summarize(ctx context.Context, table *domain.MergedTable) (string, error) {
	if table == nil {
		return "", fmt.Errorf("summarize: nil table")
	}

	serialized := SerializeTable(table)
	prompt := Prompt(r.opts.IndexName, serialized)

	r.logger.InfoContext(ctx, "recommendation_requested",
		slog.Int("records", table.Len()),
		slog.Int("prompt_len", len(prompt)))

	start := time.Now()
	resp, err := r.client.ChatCompletion(ctx, openai.Request{
		Model:       r.opts.Model,
		Messages:    []openai.Message{openai.UserMessage(prompt)},
		Temperature: 0,
	})
	infrastructure.RecordCompletion(ctx, r.opts.Metrics, "summarize", time.Since(start), err)
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return "", err
		}
		return "", apperrors.NewServiceError("recommendation request failed", err)
	}

	summary := strings.TrimSpace(resp.Content)
	r.logger.InfoContext(ctx, "recommendation_received",
		slog.Int("response_len", len(summary)),
		slog.Duration("duration", time.Since(start)))
	return summary, nil
}

const cellPadding = 2

// SerializeTable renders every record and every column, header first,
// right-aligned and without an index column.
func SerializeTable(table *domain.MergedTable) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, cellPadding, ' ', tabwriter.AlignRight)

	writeRow(w, table.Header())
	for i := range table.Records {
		writeRow(w, table.Row(i))
	}
	w.Flush()

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(strings.TrimRight(line, " "), strings.Repeat(" ", cellPadding))
	}
	return strings.Join(lines, "\n")
}

func writeRow(w *tabwriter.Writer, cells []string) {
	for _, cell := range cells {
		fmt.Fprint(w, sanitizeCell(cell), "\t")
	}
	fmt.Fprintln(w)
}

// sanitizeCell keeps tabs and newlines inside a value from breaking the
// layout.
func sanitizeCell(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", " ").Replace(s)
}
