package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"ndxcli/internal/config"
	"ndxcli/pkg/contracts/domain"
)

const (
	SectorCountsTitle    = "Sector counts:"
	RecommendationsTitle = "Stock Recommendations:"

	unlabelled = "(none)"
)

// Options controls rendering.
type Options struct {
	// Markdown renders the recommendation through glamour.
	Markdown bool
	// Width is the word-wrap width for markdown output.
	Width int
	// Style is a glamour standard style name; empty selects one from the
	// terminal.
	Style string
}

// OptionsFromConfig builds Options from the output config section.
func OptionsFromConfig(cfg config.OutputConfig) Options {
	return Options{Markdown: cfg.Markdown, Width: cfg.Width}
}

// Printer writes the sector counts and the recommendation to w.
type Printer struct {
	w    io.Writer
	opts Options
}

// NewPrinter creates a printer.
func NewPrinter(w io.Writer, opts Options) *Printer {
	if opts.Width <= 0 {
		opts.Width = 100
	}
	return &Printer{w: w, opts: opts}
}

// Print writes the sector counts of table, a blank line and the
// recommendation.
func (p *Printer) Print(enriched *domain.MergedTable, recommendation string) error {
	if err := p.PrintSectorCounts(CountSectors(enriched)); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(p.w); err != nil {
		return err
	}
	return p.PrintRecommendation(recommendation)
}

// PrintSectorCounts writes the title and a two-column table.
func (p *Printer) PrintSectorCounts(counts []domain.SectorCount) error {
	if _, err := fmt.Fprintln(p.w, SectorCountsTitle); err != nil {
		return err
	}
	_, err := fmt.Fprintln(p.w, RenderCounts(counts))
	return err
}

// PrintRecommendation writes the title and the summary text.
func (p *Printer) PrintRecommendation(text string) error {
	if _, err := fmt.Fprintln(p.w, RecommendationsTitle); err != nil {
		return err
	}

	body := text
	if p.opts.Markdown {
		rendered, err := p.renderMarkdown(text)
		if err != nil {
			return fmt.Errorf("render recommendation: %w", err)
		}
		body = strings.TrimRight(rendered, "\n")
	}
	_, err := fmt.Fprintln(p.w, body)
	return err
}

func (p *Printer) renderMarkdown(text string) (string, error) {
	styleOpt := glamour.WithAutoStyle()
	if p.opts.Style != "" {
		styleOpt = glamour.WithStandardStyle(p.opts.Style)
	}
	renderer, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithWordWrap(p.opts.Width),
	)
	if err != nil {
		return "", err
	}
	return renderer.Render(text)
}

// RenderCounts renders the counts as a bordered table with a total row.
func RenderCounts(counts []domain.SectorCount) string {
	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	countStyle := cellStyle.Align(lipgloss.Right)

	rows := make([][]string, 0, len(counts)+1)
	for _, c := range counts {
		label := c.Sector
		if label == "" {
			label = unlabelled
		}
		rows = append(rows, []string{label, strconv.Itoa(c.Count)})
	}
	rows = append(rows, []string{"Total", strconv.Itoa(Total(counts))})

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Sector", "Count").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == 1:
				return countStyle
			default:
				return cellStyle
			}
		})

	return t.String()
}
