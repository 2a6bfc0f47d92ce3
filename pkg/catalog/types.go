// Package catalog defines the catalog store entities shared by the resolver,
// editor and search packages.
package catalog

import (
	"encoding/json"
	"strings"
	"time"
)

// Column names of the catalog store table.
const (
	ColTableName          = "table_name"
	ColLocation           = "location"
	ColAccount            = "account"
	ColClassification     = "classification"
	ColColumnNum          = "column_num"
	ColRecordNum          = "record_num"
	ColCreationDate       = "creation_date"
	ColUpdateDate         = "update_date"
	ColOwner              = "owner"
	ColSubOwner           = "sub_owner"
	ColTableComment       = "table_comment"
	ColColumnComment      = "column_comment"
	ColColumnCommentFlag  = "column_comment_flag"
	ColPublish            = "publish"
	ColScope              = "scope"
	ColApplicationProject = "application_project"
	ColComment            = "comment"
)

// Columns lists every catalog store column in scan order.
var Columns = []string{
	ColTableName, ColLocation, ColAccount, ColClassification,
	ColColumnNum, ColRecordNum, ColCreationDate, ColUpdateDate,
	ColOwner, ColSubOwner, ColTableComment, ColColumnComment,
	ColColumnCommentFlag, ColPublish, ColScope, ColApplicationProject,
	ColComment,
}

// EditableColumns is the fixed set of columns the editor may write.
var EditableColumns = []string{
	ColOwner, ColSubOwner, ColPublish, ColScope, ColApplicationProject, ColComment,
}

// SearchableColumns are matched by keyword and AI search.
var SearchableColumns = []string{
	ColTableName, ColLocation, ColTableComment, ColColumnComment,
	ColApplicationProject, ColScope, ColComment,
}

// Editable holds the user-maintained fields of an entry. A nil field is absent.
type Editable struct {
	Owner              *string `json:"owner"`
	SubOwner           *string `json:"sub_owner"`
	Publish            *string `json:"publish"`
	Scope              *string `json:"scope"`
	ApplicationProject *string `json:"application_project"`
	Comment            *string `json:"comment"`
}

// Entry is one row of the catalog store.
type Entry struct {
	TableName         string     `json:"table_name"`
	Location          string     `json:"location"`
	Account           *string    `json:"account"`
	Classification    *string    `json:"classification"`
	ColumnCount       *int64     `json:"column_num"`
	RecordCount       *int64     `json:"record_num"`
	CreationDate      *time.Time `json:"creation_date"`
	UpdateDate        *time.Time `json:"update_date"`
	TableComment      *string    `json:"table_comment"`
	ColumnComment     *string    `json:"column_comment"`
	ColumnCommentFlag *int64     `json:"column_comment_flag"`

	Editable
}

// Key returns the identity of the entry.
func (e Entry) Key() Key {
	return Key{TableName: e.TableName, Location: e.Location}
}

// Path returns the three-part path of the table this entry describes.
func (e Entry) Path() LocationPath {
	p := ParseLocation(e.Location)
	p.Table = e.TableName
	return p
}

// ColumnCommentsComplete reports whether every column has been commented.
func (e Entry) ColumnCommentsComplete() bool {
	return e.ColumnCommentFlag != nil && *e.ColumnCommentFlag == 1
}

// ColumnComments decodes the serialized column-comment mapping. A value that is
// not a JSON object yields nil.
func (e Entry) ColumnComments() map[string]string {
	if e.ColumnComment == nil || strings.TrimSpace(*e.ColumnComment) == "" {
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(*e.ColumnComment), &raw); err != nil {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case string:
			out[k] = tv
		case nil:
			out[k] = ""
		default:
			b, _ := json.Marshal(tv)
			out[k] = string(b)
		}
	}
	return out
}

// Key identifies a catalog entry.
type Key struct {
	TableName string `json:"table_name"`
	Location  string `json:"location"`
}

// ColumnDescriptor describes one live column of a warehouse table.
type ColumnDescriptor struct {
	Name     string `json:"column_name"`
	DataType string `json:"data_type"`
	Comment  string `json:"comment"`
}

// ListFilter narrows the rows loaded into the editor.
type ListFilter struct {
	// Location matches exactly when set.
	Location string `json:"location,omitempty"`

	// Text matches table name or location, case-insensitively, when set.
	Text string `json:"text,omitempty"`
}

// SearchQuery is the store-level query produced by the search strategies.
type SearchQuery struct {
	// Database restricts to locations under the database when set.
	Database string

	// Schema restricts to database.schema when set together with Database.
	Schema string

	// Table restricts to a table name when Database and Schema are set.
	Table string

	// Keywords are OR-combined substring matches over SearchableColumns.
	Keywords []string

	// Limit caps the number of rows; zero means no cap.
	Limit int
}

// Str returns a pointer to s, or nil when s is empty.
func Str(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
