// Package catalog provides the MCP tools that expose catalog search,
// browsing, metadata editing and comment generation to AI agents.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/commentgen"
	"github.com/txn2/mcp-data-catalog/pkg/resolver"
	"github.com/txn2/mcp-data-catalog/pkg/search"
	"github.com/txn2/mcp-data-catalog/pkg/warehouse"
)

// Tool names.
const (
	toolSearch           = "catalog_search"
	toolLocations        = "catalog_locations"
	toolDescribe         = "catalog_describe"
	toolUpdate           = "catalog_update"
	toolCoverage         = "catalog_comment_coverage"
	toolGenerateComments = "catalog_generate_comments"
	toolSaveComments     = "catalog_save_comments"

	// promptName is the MCP prompt name for catalog usage guidance.
	promptName = "catalog_guidance"
)

// Comment generation targets.
const (
	targetColumns = "columns"
	targetTable   = "table"
)

// Searcher runs the three search strategies.
type Searcher interface {
	Filter(ctx context.Context, sel search.Selection) (*search.Result, error)
	Keyword(ctx context.Context, term string) (*search.Result, error)
	AI(ctx context.Context, question string) (*search.Result, error)
}

// Commenter drafts and writes back table and column comments.
type Commenter interface {
	GenerateColumnComments(ctx context.Context, table catalog.LocationPath) (*commentgen.ColumnDrafts, error)
	GenerateTableComment(ctx context.Context, table catalog.LocationPath) (string, error)
	Coverage(ctx context.Context, table catalog.LocationPath) (*commentgen.Coverage, error)
	SaveTableComment(ctx context.Context, table catalog.LocationPath, comment string) error
	SaveColumnComments(ctx context.Context, table catalog.LocationPath, drafts []commentgen.ColumnDraft) (*commentgen.SaveResult, error)
}

type searchInput struct {
	Strategy string `json:"strategy" jsonschema:"Search strategy. Valid values: filter, keyword, ai"`
	Query    string `json:"query,omitempty" jsonschema:"Keyword or natural-language question for the keyword and ai strategies"`
	Database string `json:"database,omitempty" jsonschema:"Database for the filter strategy"`
	Schema   string `json:"schema,omitempty" jsonschema:"Schema for the filter strategy, used only with database"`
	Table    string `json:"table,omitempty" jsonschema:"Table name for the filter strategy, used only with database and schema"`
}

type locationsInput struct {
	Database string `json:"database,omitempty" jsonschema:"List the schemas of this database"`
	Schema   string `json:"schema,omitempty" jsonschema:"With database, list the tables of this schema"`
	Table    string `json:"table,omitempty" jsonschema:"List every location holding this table name"`
}

type locationsOutput struct {
	Databases []string               `json:"databases,omitempty"`
	Schemas   []string               `json:"schemas,omitempty"`
	Tables    []string               `json:"tables,omitempty"`
	Locations []catalog.LocationPath `json:"locations,omitempty"`
}

type tableInput struct {
	Database string `json:"database" jsonschema:"Database name"`
	Schema   string `json:"schema" jsonschema:"Schema name"`
	Table    string `json:"table" jsonschema:"Table name"`
}

func (in tableInput) path() catalog.LocationPath {
	return tablePath(in.Database, in.Schema, in.Table)
}

func tablePath(database, schema, table string) catalog.LocationPath {
	return catalog.LocationPath{
		Database: strings.TrimSpace(database),
		Schema:   strings.TrimSpace(schema),
		Table:    strings.TrimSpace(table),
	}
}

type describeOutput struct {
	Entry        *catalog.Entry             `json:"entry,omitempty"`
	Columns      []catalog.ColumnDescriptor `json:"columns"`
	ColumnsError string                     `json:"columns_error,omitempty"`
	Connection   *warehouse.ConnectionInfo  `json:"connection,omitempty"`
}

type updateInput struct {
	TableName          string  `json:"table_name" jsonschema:"Table name of the catalog entry"`
	Location           string  `json:"location" jsonschema:"Location of the catalog entry as database.schema"`
	Owner              *string `json:"owner,omitempty" jsonschema:"New owner. An empty string clears the field"`
	SubOwner           *string `json:"sub_owner,omitempty" jsonschema:"New sub owner. An empty string clears the field"`
	Publish            *string `json:"publish,omitempty" jsonschema:"New publish setting. An empty string clears the field"`
	Scope              *string `json:"scope,omitempty" jsonschema:"New publish scope. An empty string clears the field"`
	ApplicationProject *string `json:"application_project,omitempty" jsonschema:"New application project. An empty string clears the field"`
	Comment            *string `json:"comment,omitempty" jsonschema:"New free-form comment. An empty string clears the field"`
}

// apply overlays the provided fields on the current values.
func (in updateInput) apply(cur catalog.Editable) catalog.Editable {
	set := func(dst **string, v *string) {
		if v != nil {
			*dst = v
		}
	}
	set(&cur.Owner, in.Owner)
	set(&cur.SubOwner, in.SubOwner)
	set(&cur.Publish, in.Publish)
	set(&cur.Scope, in.Scope)
	set(&cur.ApplicationProject, in.ApplicationProject)
	set(&cur.Comment, in.Comment)
	return cur.Normalized()
}

type updateOutput struct {
	TableName string           `json:"table_name"`
	Location  string           `json:"location"`
	Changed   bool             `json:"changed"`
	Editable  catalog.Editable `json:"editable"`
}

type generateInput struct {
	Database string `json:"database" jsonschema:"Database name"`
	Schema   string `json:"schema" jsonschema:"Schema name"`
	Table    string `json:"table" jsonschema:"Table name"`
	Target string `json:"target,omitempty" jsonschema:"What to draft. Valid values: columns (default), table"`
}

type generateTableOutput struct {
	Table   catalog.LocationPath `json:"table"`
	Comment string               `json:"comment"`
}

type saveCommentsInput struct {
	Database       string            `json:"database" jsonschema:"Database name"`
	Schema         string            `json:"schema" jsonschema:"Schema name"`
	Table          string            `json:"table" jsonschema:"Table name"`
	TableComment   string            `json:"table_comment,omitempty" jsonschema:"Table comment to write"`
	ColumnComments map[string]string `json:"column_comments,omitempty" jsonschema:"Column comments to write, keyed by column name"`
}

type saveCommentsOutput struct {
	TableCommentSaved bool                   `json:"table_comment_saved"`
	Columns           *commentgen.SaveResult `json:"columns,omitempty"`
}

// Toolkit implements the catalog toolkit.
type Toolkit struct {
	name      string
	store     catalog.Store
	search    Searcher
	warehouse warehouse.Provider
	comments  Commenter
}

// New creates a new catalog toolkit.
// If store or wh is nil, a no-op implementation is used.
func New(name string, store catalog.Store, searcher Searcher, wh warehouse.Provider, comments Commenter) (*Toolkit, error) {
	if searcher == nil {
		return nil, errors.New("catalog toolkit requires a searcher")
	}
	if comments == nil {
		return nil, errors.New("catalog toolkit requires a comment generator")
	}
	if store == nil {
		store = catalog.NewNoopStore()
	}
	if wh == nil {
		wh = warehouse.NewNoopProvider()
	}

	return &Toolkit{
		name:      name,
		store:     store,
		search:    searcher,
		warehouse: wh,
		comments:  comments,
	}, nil
}

// Kind returns the toolkit kind.
func (*Toolkit) Kind() string {
	return "catalog"
}

// Name returns the toolkit instance name.
func (t *Toolkit) Name() string {
	return t.name
}

// RegisterTools registers the catalog tools with the MCP server.
func (t *Toolkit) RegisterTools(s *mcp.Server) {
	mcp.AddTool(s, &mcp.Tool{
		Name: toolSearch,
		Description: "Searches the data catalog. The filter strategy narrows by database, schema and table; " +
			"keyword matches a term against table names, locations, comments, scope and project; " +
			"ai turns a natural-language question into keywords first. Returns at most 50 entries.",
	}, t.handleSearch)

	mcp.AddTool(s, &mcp.Tool{
		Name: toolLocations,
		Description: "Browses catalog locations. With no arguments lists databases; with database lists its schemas; " +
			"with database and schema lists its tables; with table lists every location holding that table.",
	}, t.handleLocations)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolDescribe,
		Description: "Returns the catalog entry, the live columns and BI connection details of one table.",
	}, t.handleDescribe)

	mcp.AddTool(s, &mcp.Tool{
		Name: toolUpdate,
		Description: "Updates the user-maintained fields (owner, sub_owner, publish, scope, application_project, comment) " +
			"of one catalog entry. Omitted fields keep their value; an empty string clears a field.",
	}, t.handleUpdate)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolCoverage,
		Description: "Reports whether a warehouse table has a table comment and how many of its columns are commented.",
	}, t.handleCoverage)

	mcp.AddTool(s, &mcp.Tool{
		Name: toolGenerateComments,
		Description: "Drafts comments for a warehouse table with the text generation service. " +
			"Column drafts that could not be generated carry the value ERROR. Drafts are not saved.",
	}, t.handleGenerateComments)

	mcp.AddTool(s, &mcp.Tool{
		Name:        toolSaveComments,
		Description: "Writes a table comment and column comments back to the warehouse. Columns set to ERROR or left blank are skipped.",
	}, t.handleSaveComments)

	t.registerPrompt(s)
}

// Tools returns the list of tool names provided by this toolkit.
func (*Toolkit) Tools() []string {
	return []string{
		toolSearch, toolLocations, toolDescribe, toolUpdate,
		toolCoverage, toolGenerateComments, toolSaveComments,
	}
}

// Close releases resources.
func (*Toolkit) Close() error {
	return nil
}

func (t *Toolkit) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input searchInput) (*mcp.CallToolResult, any, error) {
	var (
		res *search.Result
		err error
	)
	switch search.Strategy(strings.ToLower(strings.TrimSpace(input.Strategy))) {
	case search.StrategyFilter, "":
		res, err = t.search.Filter(ctx, search.Selection{
			Database: strings.TrimSpace(input.Database),
			Schema:   strings.TrimSpace(input.Schema),
			Table:    strings.TrimSpace(input.Table),
		})
	case search.StrategyKeyword:
		res, err = t.search.Keyword(ctx, input.Query)
	case search.StrategyAI:
		res, err = t.search.AI(ctx, input.Query)
	default:
		return errorResult(fmt.Sprintf("invalid strategy %q: must be one of: filter, keyword, ai", input.Strategy)), nil, nil
	}
	if err != nil {
		return errorResult("search failed: " + err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return successResult(res)
}

func (t *Toolkit) handleLocations(ctx context.Context, _ *mcp.CallToolRequest, input locationsInput) (*mcp.CallToolResult, any, error) {
	if table := strings.TrimSpace(input.Table); table != "" {
		paths, err := resolver.Locate(ctx, t.store, table)
		if err != nil {
			return errorResult("locating table: " + err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
		}
		return successResult(locationsOutput{Locations: paths})
	}

	r, err := resolver.Load(ctx, t.store)
	if err != nil {
		return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}

	db, schema := strings.TrimSpace(input.Database), strings.TrimSpace(input.Schema)
	var out locationsOutput
	switch {
	case db == "":
		out.Databases = r.ListDatabases()
	case schema == "":
		out.Schemas = r.ListSchemas(db)
	default:
		tables, err := r.ListTables(ctx, db, schema)
		if err != nil {
			return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
		}
		out.Tables = tables
	}
	return successResult(out)
}

func (t *Toolkit) handleDescribe(ctx context.Context, _ *mcp.CallToolRequest, input tableInput) (*mcp.CallToolResult, any, error) {
	path := input.path()
	if !path.Complete() {
		return errorResult(errIncompleteTable), nil, nil
	}

	var out describeOutput
	entry, err := t.store.Get(ctx, catalog.Key{TableName: path.Table, Location: path.Location()})
	switch {
	case err == nil:
		out.Entry = entry
	case !errors.Is(err, catalog.ErrEntryNotFound):
		return errorResult("reading catalog entry: " + err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}

	cols, err := t.warehouse.DescribeTable(ctx, path)
	if err != nil {
		out.ColumnsError = err.Error()
	}
	out.Columns = cols

	info := t.warehouse.ConnectionInfo(path)
	out.Connection = &info

	if out.Entry == nil && out.ColumnsError != "" {
		return errorResult(fmt.Sprintf("table %s not found in catalog; %s", path, out.ColumnsError)), nil, nil
	}
	return successResult(out)
}

func (t *Toolkit) handleUpdate(ctx context.Context, _ *mcp.CallToolRequest, input updateInput) (*mcp.CallToolResult, any, error) {
	key := catalog.Key{TableName: strings.TrimSpace(input.TableName), Location: strings.TrimSpace(input.Location)}
	if key.TableName == "" || key.Location == "" {
		return errorResult("table_name and location are required"), nil, nil
	}

	cur, err := t.store.Get(ctx, key)
	if err != nil {
		return errorResult("reading catalog entry: " + err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}

	fields := input.apply(cur.Editable)
	out := updateOutput{TableName: key.TableName, Location: key.Location, Editable: fields}
	if fields.Equal(cur.Editable) {
		return successResult(out)
	}

	if err := t.store.UpdateEditable(ctx, key, fields); err != nil {
		return errorResult("updating catalog entry: " + err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	out.Changed = true
	return successResult(out)
}

func (t *Toolkit) handleCoverage(ctx context.Context, _ *mcp.CallToolRequest, input tableInput) (*mcp.CallToolResult, any, error) {
	path := input.path()
	if !path.Complete() {
		return errorResult(errIncompleteTable), nil, nil
	}
	cov, err := t.comments.Coverage(ctx, path)
	if err != nil {
		return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}
	return successResult(cov)
}

func (t *Toolkit) handleGenerateComments(ctx context.Context, _ *mcp.CallToolRequest, input generateInput) (*mcp.CallToolResult, any, error) {
	path := tablePath(input.Database, input.Schema, input.Table)
	if !path.Complete() {
		return errorResult(errIncompleteTable), nil, nil
	}

	switch strings.ToLower(strings.TrimSpace(input.Target)) {
	case targetColumns, "":
		drafts, err := t.comments.GenerateColumnComments(ctx, path)
		if err != nil {
			return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
		}
		return successResult(drafts)
	case targetTable:
		comment, err := t.comments.GenerateTableComment(ctx, path)
		if err != nil {
			return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
		}
		return successResult(generateTableOutput{Table: path, Comment: comment})
	default:
		return errorResult(fmt.Sprintf("invalid target %q: must be one of: columns, table", input.Target)), nil, nil
	}
}

func (t *Toolkit) handleSaveComments(ctx context.Context, _ *mcp.CallToolRequest, input saveCommentsInput) (*mcp.CallToolResult, any, error) {
	path := tablePath(input.Database, input.Schema, input.Table)
	if !path.Complete() {
		return errorResult(errIncompleteTable), nil, nil
	}
	if strings.TrimSpace(input.TableComment) == "" && len(input.ColumnComments) == 0 {
		return errorResult("nothing to save: provide table_comment or column_comments"), nil, nil
	}

	var out saveCommentsOutput
	if strings.TrimSpace(input.TableComment) != "" {
		if err := t.comments.SaveTableComment(ctx, path, input.TableComment); err != nil {
			return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
		}
		out.TableCommentSaved = true
	}

	if len(input.ColumnComments) > 0 {
		res, err := t.comments.SaveColumnComments(ctx, path, columnDrafts(input.ColumnComments))
		if err != nil {
			return errorResult(err.Error()), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
		}
		out.Columns = res
	}
	return successResult(out)
}

const errIncompleteTable = "database, schema and table are required"

// columnDrafts converts a comment map into drafts ordered by column name.
func columnDrafts(comments map[string]string) []commentgen.ColumnDraft {
	names := make([]string, 0, len(comments))
	for name := range comments {
		names = append(names, name)
	}
	slices.Sort(names)

	drafts := make([]commentgen.ColumnDraft, 0, len(names))
	for _, name := range names {
		drafts = append(drafts, commentgen.ColumnDraft{Column: name, Comment: comments[name]})
	}
	return drafts
}

// errorResult creates an error CallToolResult.
func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(`{"error": %q}`, msg)},
		},
		IsError: true,
	}
}

// successResult creates a success CallToolResult carrying v as JSON.
func successResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult("internal error marshaling response"), nil, nil //nolint:nilerr // MCP protocol: tool errors are returned in CallToolResult.IsError
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}

// registerPrompt registers the catalog guidance prompt.
func (*Toolkit) registerPrompt(s *mcp.Server) {
	s.AddPrompt(&mcp.Prompt{
		Name:        promptName,
		Description: "Guidance on finding, documenting and maintaining data catalog entries",
	}, func(_ context.Context, _ *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Messages: []*mcp.PromptMessage{
				{
					Role:    "user",
					Content: &mcp.TextContent{Text: catalogPrompt},
				},
			},
		}, nil
	})
}

// catalogPrompt guides the AI agent through the catalog tools.
const catalogPrompt = `## Data Catalog Guidance

### Finding Tables

- Use catalog_locations to walk databases, then schemas, then tables.
- Use catalog_search with strategy "keyword" when the user names a term that may appear in a table name or comment.
- Use catalog_search with strategy "ai" when the user asks a question in natural language.
- Results are capped at 50 entries. Narrow the search if the answer looks truncated.

### Inspecting a Table

catalog_describe returns the catalog entry, the live columns with their comments, and the
server and full path a BI tool needs to connect. A table may exist in the warehouse without a
catalog entry.

### Maintaining Metadata

- catalog_update changes owner, sub_owner, publish, scope, application_project and comment.
  Every other field is read-only.
- Confirm ownership changes with the user before calling catalog_update.

### Documenting Tables

1. Call catalog_comment_coverage to see what is missing.
2. Call catalog_generate_comments to draft column comments, or with target "table" for the table comment.
3. Show the drafts to the user. Columns marked ERROR could not be generated and need a manual comment.
4. Call catalog_save_comments only with drafts the user accepted.`

// Verify interface compliance.
var _ interface {
	Kind() string
	Name() string
	RegisterTools(s *mcp.Server)
	Tools() []string
	Close() error
} = (*Toolkit)(nil)
