package session

import (
	"context"
	"fmt"

	"github.com/txn2/mcp-data-catalog/pkg/editor"
)

// ClaimSnapshot takes the editor buffer of session id for a save. The token
// check and the claim happen under the store lock: while the save runs the
// stored buffer carries no token, so a concurrent save with the same token
// is rejected as stale. The returned copy keeps the submitted token.
func ClaimSnapshot(ctx context.Context, store Store, id, token string) (*editor.Snapshot, error) {
	if store == nil || id == "" || token == "" {
		return nil, editor.ErrStaleSnapshot
	}

	var claimed *editor.Snapshot
	err := store.Update(ctx, id, func(st *Interaction) {
		if st.Snapshot == nil || st.Snapshot.Token != token {
			return
		}
		claimed = st.Snapshot.Clone()
		pending := st.Snapshot.Clone()
		pending.Token = ""
		st.Snapshot = pending
	})
	if err != nil {
		return nil, fmt.Errorf("claiming editor snapshot: %w", err)
	}
	if claimed == nil {
		return nil, editor.ErrStaleSnapshot
	}
	return claimed, nil
}

// ReleaseSnapshot ends a claim. snap replaces the claimed buffer; with a
// nil result (the save was rejected) snap is the unmodified claim and its
// token becomes valid again. A buffer reloaded while the save ran is kept.
func ReleaseSnapshot(ctx context.Context, store Store, id string, snap *editor.Snapshot, res *editor.SaveResult) error {
	if store == nil || id == "" || snap == nil {
		return nil
	}
	err := store.Update(ctx, id, func(st *Interaction) {
		if st.Snapshot == nil || st.Snapshot.Token != "" {
			return
		}
		st.Snapshot = snap
		if res != nil {
			st.LastSave = res
		}
	})
	if err != nil {
		return fmt.Errorf("releasing editor snapshot: %w", err)
	}
	return nil
}
