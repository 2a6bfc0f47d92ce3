// Package session keeps the per-interaction state of the catalog pages:
// the current selection, the editor snapshot, the last search result and
// unsaved comment drafts.
package session

import (
	"context"
	"time"

	"github.com/txn2/mcp-data-catalog/pkg/catalog"
	"github.com/txn2/mcp-data-catalog/pkg/commentgen"
	"github.com/txn2/mcp-data-catalog/pkg/editor"
	"github.com/txn2/mcp-data-catalog/pkg/search"
)

// Interaction is the state carried between requests of one browser session.
type Interaction struct {
	// Selection is the database/schema/table chosen on the browse and search pages.
	Selection search.Selection

	// Snapshot is the editor buffer. Saves are checked against its token.
	Snapshot *editor.Snapshot

	// LastSave is the outcome of the most recent editor save.
	LastSave *editor.SaveResult

	// Search is the most recent search result, kept until cleared.
	Search *search.Result

	// CommentTable is the table selected on the comment page.
	CommentTable catalog.LocationPath

	// TableDraft is an unsaved generated table comment.
	TableDraft string

	// ColumnDrafts are unsaved generated column comments.
	ColumnDrafts *commentgen.ColumnDrafts
}

// ClearDrafts drops generated comments, e.g. when the selected table changes.
func (i *Interaction) ClearDrafts() {
	i.TableDraft = ""
	i.ColumnDrafts = nil
}

// Session is one browser session.
type Session struct {
	// ID is the unique session identifier.
	ID string

	// CreatedAt is when the session was established.
	CreatedAt time.Time

	// LastActiveAt is the most recent activity timestamp.
	LastActiveAt time.Time

	// ExpiresAt is when the session expires if not touched.
	ExpiresAt time.Time

	// State holds the interaction state.
	State Interaction
}

// Store defines the interface for session persistence.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error

	// Get returns a copy of a session. Returns nil, nil if not found or expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Touch updates LastActiveAt and extends ExpiresAt by the store's TTL.
	Touch(ctx context.Context, id string) error

	// Update applies fn to the session state under the store lock.
	// A missing session is ignored.
	Update(ctx context.Context, id string, fn func(*Interaction)) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error

	// Close stops background routines and releases resources.
	Close() error
}
