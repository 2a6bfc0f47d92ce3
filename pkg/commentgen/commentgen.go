// Package commentgen drafts table and column comments with the
// text-generation service and writes approved drafts back to the warehouse.
package commentgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/textgen"
	"github.com/txn2/mcp-data-catalog/pkg/warehouse"
)

const (
	// ErrorMarker replaces the draft of a column whose generation failed.
	ErrorMarker = "ERROR"

	// DefaultSampleLimit is the number of non-null values shown to the model per column.
	DefaultSampleLimit = 100

	noTableDescription = "No table description"
)

// ErrIncompletePath is returned when a table path lacks a part.
var ErrIncompletePath = errors.New("database, schema and table are required")

const tablePrompt = `Table name: %s
Columns: %s

Example:
TB_SALES_SUMMARY: Sales summary table. Holds daily and monthly sales figures.

Following the example, describe the purpose of this table in at most 100 characters. Output only the description.`

const columnPrompt = `Table: %s
Table description: %s
Column name: %s
Data type: %s
Sample data: %s

Examples:
qmin: Minimum flow rate. Unit: [mm3/sec]
KOHIN: Child part number.

Considering the table name, table description, column name and sample data above, write a concise technical description of this column in at most 50 characters.
Output only the description with no preamble or notes. Mention a unit only for numeric types.`

// ColumnDraft is the generated comment for one column.
type ColumnDraft struct {
	Column   string `json:"column_name"`
	DataType string `json:"data_type"`
	Comment  string `json:"comment"`
	Error    string `json:"error,omitempty"`
}

// Failed reports whether the draft carries the error marker.
func (d ColumnDraft) Failed() bool {
	return d.Comment == ErrorMarker
}

// ColumnDrafts is the outcome of generating comments for every column.
type ColumnDrafts struct {
	Table     catalog.LocationPath `json:"table"`
	Drafts    []ColumnDraft        `json:"drafts"`
	Generated int                  `json:"generated"`
	Failed    int                  `json:"failed"`
}

// Comments returns the successful drafts keyed by column name.
func (d *ColumnDrafts) Comments() map[string]string {
	out := make(map[string]string, d.Generated)
	for _, draft := range d.Drafts {
		if !draft.Failed() {
			out[draft.Column] = draft.Comment
		}
	}
	return out
}

// Coverage summarizes how much of a table is commented.
type Coverage struct {
	Table        catalog.LocationPath       `json:"table"`
	TableComment string                     `json:"table_comment"`
	Columns      []catalog.ColumnDescriptor `json:"columns"`
	Commented    int                        `json:"commented"`
	Total        int                        `json:"total"`
}

// HasTableComment reports whether a table comment is set.
func (c Coverage) HasTableComment() bool {
	return strings.TrimSpace(c.TableComment) != ""
}

// Percent returns the commented column share in [0, 100].
func (c Coverage) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Commented) * 100 / float64(c.Total)
}

// ColumnFailure records a column whose comment could not be written.
type ColumnFailure struct {
	Column string `json:"column_name"`
	Err    error  `json:"-"`
	Error  string `json:"error"`
}

// SaveResult summarizes a column comment write-back.
type SaveResult struct {
	Saved    int             `json:"saved"`
	Skipped  int             `json:"skipped"`
	Failures []ColumnFailure `json:"failures,omitempty"`
}

// Option configures a Generator.
type Option func(*Generator)

// WithModel sets the completion model.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithSampleLimit sets the number of sample values per column.
func WithSampleLimit(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.sampleLimit = n
		}
	}
}

// Generator drafts and saves comments.
type Generator struct {
	wh          warehouse.Provider
	gen         textgen.Provider
	model       string
	sampleLimit int
}

// New creates a generator.
func New(wh warehouse.Provider, gen textgen.Provider, opts ...Option) *Generator {
	g := &Generator{
		wh:          wh,
		gen:         gen,
		model:       textgen.DefaultModel,
		sampleLimit: DefaultSampleLimit,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateColumnComments drafts a comment for every column in ordinal order.
// Columns are processed one at a time; a column whose samples or completion
// fail gets ErrorMarker and the rest still run.
func (g *Generator) GenerateColumnComments(ctx context.Context, table catalog.LocationPath) (*ColumnDrafts, error) {
	if !table.Complete() {
		return nil, ErrIncompletePath
	}
	cols, err := g.wh.DescribeTable(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}

	description, err := g.wh.TableComment(ctx, table)
	if err != nil {
		slog.Warn("reading table comment failed", "table", table.String(), "error", err)
	}
	if strings.TrimSpace(description) == "" {
		description = noTableDescription
	}

	out := &ColumnDrafts{Table: table, Drafts: make([]ColumnDraft, 0, len(cols))}
	for _, col := range cols {
		draft := ColumnDraft{Column: col.Name, DataType: col.DataType}
		comment, err := g.columnComment(ctx, table, description, col)
		if err != nil {
			slog.Warn("column comment generation failed",
				"table", table.String(), "column", col.Name, "error", err)
			draft.Comment = ErrorMarker
			draft.Error = err.Error()
			out.Failed++
		} else {
			draft.Comment = comment
			out.Generated++
		}
		out.Drafts = append(out.Drafts, draft)
	}
	return out, nil
}

func (g *Generator) columnComment(ctx context.Context, table catalog.LocationPath, description string, col catalog.ColumnDescriptor) (string, error) {
	samples, err := g.wh.SampleValues(ctx, table, col.Name, g.sampleLimit)
	if err != nil {
		return "", fmt.Errorf("sampling values: %w", err)
	}
	prompt := fmt.Sprintf(columnPrompt, table.Table, description, col.Name, col.DataType, strings.Join(samples, ", "))
	comment, err := g.gen.Complete(ctx, g.model, prompt)
	if err != nil {
		return "", fmt.Errorf("generating comment: %w", err)
	}
	return strings.TrimSpace(comment), nil
}

// GenerateTableComment drafts a table comment from its column list.
func (g *Generator) GenerateTableComment(ctx context.Context, table catalog.LocationPath) (string, error) {
	if !table.Complete() {
		return "", ErrIncompletePath
	}
	cols, err := g.wh.DescribeTable(ctx, table)
	if err != nil {
		return "", fmt.Errorf("listing columns: %w", err)
	}
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name)
	}

	comment, err := g.gen.Complete(ctx, g.model, fmt.Sprintf(tablePrompt, table.Table, strings.Join(names, ", ")))
	if err != nil {
		return "", fmt.Errorf("generating table comment: %w", err)
	}
	return strings.TrimSpace(comment), nil
}

// Coverage reports the table comment and how many columns carry a comment.
func (g *Generator) Coverage(ctx context.Context, table catalog.LocationPath) (*Coverage, error) {
	if !table.Complete() {
		return nil, ErrIncompletePath
	}
	cols, err := g.wh.DescribeTable(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("listing columns: %w", err)
	}
	comment, err := g.wh.TableComment(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("reading table comment: %w", err)
	}

	cov := &Coverage{Table: table, TableComment: comment, Columns: cols, Total: len(cols)}
	for _, c := range cols {
		if strings.TrimSpace(c.Comment) != "" {
			cov.Commented++
		}
	}
	return cov, nil
}

// SaveTableComment writes a table comment.
func (g *Generator) SaveTableComment(ctx context.Context, table catalog.LocationPath, comment string) error {
	if !table.Complete() {
		return ErrIncompletePath
	}
	if err := g.wh.SetTableComment(ctx, table, strings.TrimSpace(comment)); err != nil {
		return fmt.Errorf("saving table comment: %w", err)
	}
	slog.Info("table comment saved", "table", table.String())
	return nil
}

// SaveColumnComments writes column comments one at a time. Blank drafts and
// drafts carrying ErrorMarker are skipped; a failed write does not stop the rest.
func (g *Generator) SaveColumnComments(ctx context.Context, table catalog.LocationPath, drafts []ColumnDraft) (*SaveResult, error) {
	if !table.Complete() {
		return nil, ErrIncompletePath
	}
	result := &SaveResult{}
	for _, d := range drafts {
		comment := strings.TrimSpace(d.Comment)
		if comment == "" || d.Failed() {
			result.Skipped++
			continue
		}
		if err := g.wh.SetColumnComment(ctx, table, d.Column, comment); err != nil {
			slog.Warn("saving column comment failed", "table", table.String(), "column", d.Column, "error", err)
			result.Failures = append(result.Failures, ColumnFailure{Column: d.Column, Err: err, Error: err.Error()})
			continue
		}
		result.Saved++
	}
	slog.Info("column comments saved", "table", table.String(),
		"saved", result.Saved, "skipped", result.Skipped, "failed", len(result.Failures))
	return result, nil
}
