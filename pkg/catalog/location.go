package catalog

import "strings"

// Separator joins the parts of a location.
const Separator = "."

// LocationPath is a parsed database.schema[.table] path.
type LocationPath struct {
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Table    string `json:"table,omitempty"`
}

// ParseLocation splits a "database.schema" string. A value without a separator
// yields only a database.
func ParseLocation(location string) LocationPath {
	db, schema, _ := strings.Cut(location, Separator)
	return LocationPath{Database: db, Schema: schema}
}

// JoinLocation builds the stored location string for a database and schema.
func JoinLocation(database, schema string) string {
	return database + Separator + schema
}

// Location returns the stored location string.
func (p LocationPath) Location() string {
	return JoinLocation(p.Database, p.Schema)
}

// String returns the dot-separated path, including the table when set.
func (p LocationPath) String() string {
	if p.Table == "" {
		return p.Location()
	}
	return p.Location() + Separator + p.Table
}

// Complete reports whether all three parts are set.
func (p LocationPath) Complete() bool {
	return p.Database != "" && p.Schema != "" && p.Table != ""
}
