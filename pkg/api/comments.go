package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/txn2/mcp-data-catalog/pkg/commentgen"
	"github.com/txn2/mcp-data-catalog/pkg/session"
)

// CommentCoverage handles GET /comments/{database}/{schema}/{table}/coverage.
func (h *Handler) CommentCoverage(w http.ResponseWriter, r *http.Request) {
	cov, err := h.comments.Coverage(r.Context(), tablePath(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cov)
}

// generateRequest is the body of POST /comments/.../generate.
type generateRequest struct {
	Target string `json:"target" validate:"omitempty,oneof=table columns"`
}

// draftsResponse carries the unsaved drafts of one table.
type draftsResponse struct {
	TableComment string                   `json:"table_comment,omitempty"`
	Columns      *commentgen.ColumnDrafts `json:"columns,omitempty"`
}

// GenerateComments handles POST /comments/{database}/{schema}/{table}/generate.
// Drafts are kept in the session until saved or discarded.
func (h *Handler) GenerateComments(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	path := tablePath(r)

	var resp draftsResponse
	if req.Target == "table" {
		comment, err := h.comments.GenerateTableComment(r.Context(), path)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp.TableComment = comment
	} else {
		drafts, err := h.comments.GenerateColumnComments(r.Context(), path)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp.Columns = drafts
	}

	if err := h.updateState(r, func(st *session.Interaction) {
		if st.CommentTable != path {
			st.ClearDrafts()
			st.CommentTable = path
		}
		if resp.Columns != nil {
			st.ColumnDrafts = resp.Columns
		} else {
			st.TableDraft = resp.TableComment
		}
	}); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CommentDrafts handles GET /comments/{database}/{schema}/{table}/drafts.
func (h *Handler) CommentDrafts(w http.ResponseWriter, r *http.Request) {
	st := h.state(r)
	if st.CommentTable != tablePath(r) {
		writeJSON(w, http.StatusOK, draftsResponse{})
		return
	}
	writeJSON(w, http.StatusOK, draftsResponse{TableComment: st.TableDraft, Columns: st.ColumnDrafts})
}

// DiscardDrafts handles DELETE /comments/{database}/{schema}/{table}/drafts.
func (h *Handler) DiscardDrafts(w http.ResponseWriter, r *http.Request) {
	path := tablePath(r)
	if err := h.updateState(r, func(st *session.Interaction) {
		if st.CommentTable == path {
			st.ClearDrafts()
		}
	}); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// saveCommentsRequest is the body of PUT /comments/{database}/{schema}/{table}.
type saveCommentsRequest struct {
	TableComment   string            `json:"table_comment" validate:"max=4000"`
	ColumnComments map[string]string `json:"column_comments" validate:"dive,max=4000"`
}

type saveCommentsResponse struct {
	TableCommentSaved bool                   `json:"table_comment_saved"`
	Columns           *commentgen.SaveResult `json:"columns,omitempty"`
}

// SaveComments handles PUT /comments/{database}/{schema}/{table}.
func (h *Handler) SaveComments(w http.ResponseWriter, r *http.Request) {
	var req saveCommentsRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.TableComment) == "" && len(req.ColumnComments) == 0 {
		writeError(w, http.StatusBadRequest, "nothing to save")
		return
	}
	path := tablePath(r)

	var resp saveCommentsResponse
	if strings.TrimSpace(req.TableComment) != "" {
		if err := h.comments.SaveTableComment(r.Context(), path, req.TableComment); err != nil {
			writeServiceError(w, err)
			return
		}
		resp.TableCommentSaved = true
	}
	if len(req.ColumnComments) > 0 {
		res, err := h.comments.SaveColumnComments(r.Context(), path, columnDrafts(req.ColumnComments))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		resp.Columns = res
	}

	if err := h.updateState(r, func(st *session.Interaction) {
		if st.CommentTable == path {
			st.ClearDrafts()
		}
	}); err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusOK
	if resp.Columns != nil && len(resp.Columns.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, resp)
}

// columnDrafts converts a comment map into drafts ordered by column name.
func columnDrafts(comments map[string]string) []commentgen.ColumnDraft {
	names := make([]string, 0, len(comments))
	for name := range comments {
		names = append(names, name)
	}
	sort.Strings(names)

	drafts := make([]commentgen.ColumnDraft, 0, len(names))
	for _, name := range names {
		drafts = append(drafts, commentgen.ColumnDraft{Column: name, Comment: comments[name]})
	}
	return drafts
}
