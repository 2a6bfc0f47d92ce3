// Package editor implements batch editing of catalog entries: load a
// snapshot, diff the submitted rows against it and write only changed rows.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
)

var (
	// ErrStaleSnapshot is returned when a save names a token other than the
	// snapshot's current one.
	ErrStaleSnapshot = errors.New("snapshot is stale, reload before saving")

	// ErrRowMismatch is returned when the submitted rows do not line up with
	// the snapshot rows by count or identity.
	ErrRowMismatch = errors.New("submitted rows do not match snapshot")

	// ErrReadOnlyField is returned when a submitted row changes a read-only field.
	ErrReadOnlyField = errors.New("read-only field changed")
)

// Snapshot is the set of rows presented for editing.
type Snapshot struct {
	Token  string             `json:"token"`
	Filter catalog.ListFilter `json:"filter"`
	Rows   []catalog.Entry    `json:"rows"`
}

// Clone returns a copy of the snapshot that can be saved without touching
// the original rows.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Rows = slices.Clone(s.Rows)
	return &out
}

// RowFailure records one row whose update failed.
type RowFailure struct {
	Index     int    `json:"index"`
	TableName string `json:"table_name"`
	Location  string `json:"location"`
	Err       error  `json:"-"`
	Message   string `json:"error"`
}

// SaveResult summarizes a save.
type SaveResult struct {
	Updated   int          `json:"updated"`
	Failed    int          `json:"failed"`
	Unchanged int          `json:"unchanged"`
	Failures  []RowFailure `json:"failures,omitempty"`
	Token     string       `json:"token"`
}

// Rotated reports whether the save produced a new snapshot token.
func (r SaveResult) Rotated() bool {
	return r.Updated > 0
}

// Store is the subset of catalog.Store the editor needs.
type Store interface {
	List(ctx context.Context, filter catalog.ListFilter) ([]catalog.Entry, error)
	UpdateEditable(ctx context.Context, key catalog.Key, fields catalog.Editable) error
}

// Option configures an Editor.
type Option func(*Editor)

// WithTokenFunc overrides snapshot token generation.
func WithTokenFunc(fn func() string) Option {
	return func(e *Editor) {
		e.newToken = fn
	}
}

// Editor loads and saves catalog entry snapshots.
type Editor struct {
	store    Store
	newToken func() string
}

// New creates an editor over a store.
func New(store Store, opts ...Option) *Editor {
	e := &Editor{
		store:    store,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Load fetches the rows matching filter into a new snapshot.
func (e *Editor) Load(ctx context.Context, filter catalog.ListFilter) (*Snapshot, error) {
	rows, err := e.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("loading catalog entries: %w", err)
	}
	return &Snapshot{
		Token:  e.newToken(),
		Filter: filter,
		Rows:   rows,
	}, nil
}

// Save writes every submitted row whose editable fields differ from the
// snapshot. Rows are written one at a time and a failed row does not stop
// the rest. When at least one row is written the snapshot token rotates and
// the snapshot rows take the written values.
func (e *Editor) Save(ctx context.Context, snap *Snapshot, token string, edited []catalog.Entry) (*SaveResult, error) {
	if snap == nil || token != snap.Token {
		return nil, ErrStaleSnapshot
	}
	if err := validate(snap.Rows, edited); err != nil {
		return nil, err
	}

	result := &SaveResult{Token: snap.Token}
	for i, row := range edited {
		orig := snap.Rows[i]
		if orig.Editable.Equal(row.Editable) {
			result.Unchanged++
			continue
		}

		fields := row.Editable.Normalized()
		if err := e.store.UpdateEditable(ctx, orig.Key(), fields); err != nil {
			slog.Warn("catalog entry update failed",
				"table_name", orig.TableName, "location", orig.Location, "error", err)
			result.Failed++
			result.Failures = append(result.Failures, RowFailure{
				Index:     i,
				TableName: orig.TableName,
				Location:  orig.Location,
				Err:       err,
				Message:   err.Error(),
			})
			continue
		}
		snap.Rows[i].Editable = fields
		result.Updated++
	}

	if result.Rotated() {
		snap.Token = e.newToken()
		result.Token = snap.Token
	}

	slog.Info("catalog entries saved",
		"updated", result.Updated, "failed", result.Failed, "unchanged", result.Unchanged)
	return result, nil
}

// validate rejects a submission that reorders rows or touches read-only fields.
func validate(orig, edited []catalog.Entry) error {
	if len(orig) != len(edited) {
		return fmt.Errorf("%w: got %d rows, snapshot has %d", ErrRowMismatch, len(edited), len(orig))
	}
	for i := range orig {
		if orig[i].Key() != edited[i].Key() {
			return fmt.Errorf("%w: row %d is %s.%s, expected %s.%s", ErrRowMismatch, i,
				edited[i].Location, edited[i].TableName, orig[i].Location, orig[i].TableName)
		}
		if !orig[i].ReadOnlyEqual(edited[i]) {
			return fmt.Errorf("%w: row %d (%s.%s)", ErrReadOnlyField, i, orig[i].Location, orig[i].TableName)
		}
	}
	return nil
}
