// Package dataset loads the constituent list and the price-change list and
// inner-joins them into a domain.MergedTable.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"ndxcli/internal/config"
	apperrors "ndxcli/internal/errors"
	"ndxcli/pkg/contracts/domain"
)

// Options names the columns used by the join.
type Options struct {
	JoinKey      string
	ChangeColumn string
	NameColumn   string
}

// DefaultOptions returns symbol/ytd/name.
func DefaultOptions() Options {
	return Options{
		JoinKey:      config.DefaultJoinKey,
		ChangeColumn: config.DefaultChangeColumn,
		NameColumn:   config.DefaultNameColumn,
	}
}

// OptionsFromConfig builds Options from the input config section.
func OptionsFromConfig(cfg config.InputConfig) Options {
	return Options{
		JoinKey:      cfg.JoinKey,
		ChangeColumn: cfg.ChangeColumn,
		NameColumn:   cfg.NameColumn,
	}.withDefaults()
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.JoinKey == "" {
		o.JoinKey = d.JoinKey
	}
	if o.ChangeColumn == "" {
		o.ChangeColumn = d.ChangeColumn
	}
	return o
}

// Loader reads and joins the two tabular sources.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger uses slog.Default.
func NewLoader(logger *slog.Logger, opts Options) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{opts: opts.withDefaults(), logger: logger}
}

// LoadAndMerge is NewLoader(nil, opts).LoadAndMerge.
func LoadAndMerge(ctx context.Context, sourceA, sourceB string, opts Options) (*domain.MergedTable, error) {
	return NewLoader(nil, opts).LoadAndMerge(ctx, sourceA, sourceB)
}

// LoadAndMerge reads the constituent list (sourceA) and the price-change
// list (sourceB) and inner-joins them on the join key. Every column of A is
// kept in order; only the change column is projected from B. Rows absent
// from either side are dropped.
func (l *Loader) LoadAndMerge(ctx context.Context, sourceA, sourceB string) (*domain.MergedTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a, err := readTable(sourceA)
	if err != nil {
		return nil, err
	}
	b, err := readTable(sourceB)
	if err != nil {
		return nil, err
	}

	l.logger.DebugContext(ctx, "sources_read",
		slog.String("constituents", sourceA),
		slog.Int("constituent_rows", len(a.Rows)),
		slog.String("price_changes", sourceB),
		slog.Int("price_change_rows", len(b.Rows)))

	table, err := l.merge(ctx, a, b)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "datasets_merged",
		slog.Int("records", table.Len()),
		slog.Int("dropped_constituents", len(a.Rows)-table.Len()))

	return table, nil
}

func (l *Loader) merge(ctx context.Context, a, b *rawTable) (*domain.MergedTable, error) {
	key := l.opts.JoinKey
	change := l.opts.ChangeColumn

	aKey := a.columnIndex(key)
	if aKey < 0 {
		return nil, missingColumn(a.Path, key)
	}
	bKey := b.columnIndex(key)
	if bKey < 0 {
		return nil, missingColumn(b.Path, key)
	}
	bChange := b.columnIndex(change)
	if bChange < 0 {
		return nil, missingColumn(b.Path, change)
	}

	// first occurrence wins
	changes := make(map[string]int, len(b.Rows))
	for i, row := range b.Rows {
		k := strings.TrimSpace(row[bKey])
		if _, dup := changes[k]; dup {
			l.logger.DebugContext(ctx, "duplicate_key_ignored",
				slog.String("file", b.Path),
				slog.String("key", k),
				slog.Int("row", i+2))
			continue
		}
		changes[k] = i
	}

	columns, changeName := mergedColumns(a.Header, change)
	nameIdx := -1
	if l.opts.NameColumn != "" {
		nameIdx = a.columnIndex(l.opts.NameColumn)
	}

	table := &domain.MergedTable{
		Columns:   columns,
		JoinKey:   key,
		ChangeKey: changeName,
		Records:   make([]domain.CompanyRecord, 0, len(a.Rows)),
	}

	for _, row := range a.Rows {
		symbol := strings.TrimSpace(row[aKey])
		bi, ok := changes[symbol]
		if !ok {
			l.logger.DebugContext(ctx, "constituent_without_price_change", slog.String("symbol", symbol))
			continue
		}

		raw := strings.TrimSpace(b.Rows[bi][bChange])
		ytd, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apperrors.NewFormatError(
				fmt.Sprintf("%s: non-numeric %s %q for %s at row %d", b.Path, change, raw, symbol, bi+2), err).
				WithContext("symbol", symbol)
		}

		values := make([]string, 0, len(columns))
		values = append(values, row...)
		values = append(values, raw)

		record := domain.CompanyRecord{
			Symbol: symbol,
			YTD:    ytd,
			Values: values,
		}
		if nameIdx >= 0 {
			record.Name = strings.TrimSpace(row[nameIdx])
		}
		table.Records = append(table.Records, record)
	}

	return table, nil
}

// mergedColumns appends the change column to A's header. A clash with an
// existing A column is resolved with _x/_y suffixes.
func mergedColumns(header []string, change string) ([]string, string) {
	columns := append([]string(nil), header...)
	changeName := change
	for i, h := range columns {
		if h == change {
			columns[i] = change + "_x"
			changeName = change + "_y"
		}
	}
	return append(columns, changeName), changeName
}

func missingColumn(path, column string) error {
	return apperrors.NewFormatError(fmt.Sprintf("%s: missing required column %q", path, column), nil).
		WithContext("column", column)
}
