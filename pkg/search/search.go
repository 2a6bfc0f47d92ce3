// Package search runs the three catalog search strategies and labels each
// result with how it was produced.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/textgen"
)

const (
	// ResultLimit caps every search result.
	ResultLimit = 50

	// MaxKeywords caps the keywords taken from a generated answer.
	MaxKeywords = 5
)

// Strategy names a search strategy.
type Strategy string

// Search strategies.
const (
	StrategyFilter  Strategy = "filter"
	StrategyKeyword Strategy = "keyword"
	StrategyAI      Strategy = "ai"
)

// ErrEmptyQuery is returned when a keyword or question is blank.
var ErrEmptyQuery = errors.New("search term is empty")

const keywordPrompt = `Extract search keywords from the following question about data tables.
Return only the keywords as a single comma-separated line, with no explanation.

Question: %s`

// Selection is a hierarchical filter. An empty part means any.
type Selection struct {
	Database string `json:"database,omitempty"`
	Schema   string `json:"schema,omitempty"`
	Table    string `json:"table,omitempty"`
}

// Result is one search outcome.
type Result struct {
	Strategy   Strategy        `json:"strategy"`
	Provenance string          `json:"provenance"`
	Keywords   []string        `json:"keywords,omitempty"`
	Entries    []catalog.Entry `json:"entries"`
}

// Store is the subset of catalog.Store the aggregator needs.
type Store interface {
	Search(ctx context.Context, q catalog.SearchQuery) ([]catalog.Entry, error)
}

// Aggregator runs searches against the catalog store.
type Aggregator struct {
	store Store
	gen   textgen.Provider
	model string
}

// New creates an aggregator. A nil provider disables keyword extraction,
// so AI search falls back to the raw question.
func New(store Store, gen textgen.Provider, model string) *Aggregator {
	if gen == nil {
		gen = textgen.NewNoopProvider()
	}
	if model == "" {
		model = textgen.DefaultModel
	}
	return &Aggregator{store: store, gen: gen, model: model}
}

// Filter searches by database, schema and table. The schema only applies
// with a database and the table only applies with both.
func (a *Aggregator) Filter(ctx context.Context, sel Selection) (*Result, error) {
	q := catalog.SearchQuery{Limit: ResultLimit, Database: sel.Database}
	if sel.Database != "" {
		q.Schema = sel.Schema
		if sel.Schema != "" {
			q.Table = sel.Table
		}
	}

	entries, err := a.store.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filter search: %w", err)
	}
	return &Result{
		Strategy:   StrategyFilter,
		Provenance: filterProvenance(q),
		Entries:    entries,
	}, nil
}

// Keyword matches term as a case-insensitive substring of the searchable columns.
func (a *Aggregator) Keyword(ctx context.Context, term string) (*Result, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptyQuery
	}

	entries, err := a.store.Search(ctx, catalog.SearchQuery{Keywords: []string{term}, Limit: ResultLimit})
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	return &Result{
		Strategy:   StrategyKeyword,
		Provenance: "Keyword search: " + term,
		Keywords:   []string{term},
		Entries:    entries,
	}, nil
}

// AI reduces a natural-language question to keywords and matches any of them.
// If keyword extraction fails or yields nothing the question itself is used.
func (a *Aggregator) AI(ctx context.Context, question string) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuery
	}

	keywords := a.Keywords(ctx, question)
	entries, err := a.store.Search(ctx, catalog.SearchQuery{Keywords: keywords, Limit: ResultLimit})
	if err != nil {
		return nil, fmt.Errorf("ai search: %w", err)
	}
	return &Result{
		Strategy:   StrategyAI,
		Provenance: fmt.Sprintf("AI search: %s (keywords: %s)", question, strings.Join(keywords, ", ")),
		Keywords:   keywords,
		Entries:    entries,
	}, nil
}

// Keywords asks the text-generation service for up to MaxKeywords keywords.
func (a *Aggregator) Keywords(ctx context.Context, question string) []string {
	answer, err := a.gen.Complete(ctx, a.model, fmt.Sprintf(keywordPrompt, question))
	if err != nil {
		slog.Warn("keyword extraction failed, searching by question", "provider", a.gen.Name(), "error", err)
		return []string{question}
	}
	keywords := ParseKeywords(answer)
	if len(keywords) == 0 {
		return []string{question}
	}
	return keywords
}

// ParseKeywords splits a comma-separated answer, dropping blanks and
// keeping at most MaxKeywords entries.
func ParseKeywords(answer string) []string {
	var out []string
	for _, part := range strings.Split(answer, ",") {
		kw := strings.TrimSpace(part)
		if kw == "" {
			continue
		}
		out = append(out, kw)
		if len(out) == MaxKeywords {
			break
		}
	}
	return out
}

func filterProvenance(q catalog.SearchQuery) string {
	if q.Database == "" {
		return "Filter search (all)"
	}
	parts := []string{"DB: " + q.Database}
	if q.Schema != "" {
		parts = append(parts, "Schema: "+q.Schema)
	}
	if q.Table != "" {
		parts = append(parts, "Table: "+q.Table)
	}
	return "Filter search (" + strings.Join(parts, ", ") + ")"
}
