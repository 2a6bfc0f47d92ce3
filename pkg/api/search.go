package api

import (
	"net/http"
	"strings"

	"github.com/txn2/mcp-data-catalog/pkg/export"
	"github.com/txn2/mcp-data-catalog/pkg/search"
	"github.com/txn2/mcp-data-catalog/pkg/session"
)

// searchRequest is the body of POST /search.
type searchRequest struct {
	Strategy string `json:"strategy" validate:"required,oneof=filter keyword ai"`
	Query    string `json:"query" validate:"required_unless=Strategy filter,max=1000"`
	Database string `json:"database"`
	Schema   string `json:"schema"`
	Table    string `json:"table"`
}

// RunSearch handles POST /search. The result replaces the session's last
// search result.
func (h *Handler) RunSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	var (
		res *search.Result
		err error
	)
	switch search.Strategy(req.Strategy) {
	case search.StrategyKeyword:
		res, err = h.search.Keyword(r.Context(), req.Query)
	case search.StrategyAI:
		res, err = h.search.AI(r.Context(), req.Query)
	default:
		res, err = h.search.Filter(r.Context(), search.Selection{
			Database: strings.TrimSpace(req.Database),
			Schema:   strings.TrimSpace(req.Schema),
			Table:    strings.TrimSpace(req.Table),
		})
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if err := h.updateState(r, func(st *session.Interaction) {
		st.Search = res
	}); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LastSearch handles GET /search.
func (h *Handler) LastSearch(w http.ResponseWriter, r *http.Request) {
	res := h.state(r).Search
	if res == nil {
		writeError(w, http.StatusNotFound, "no search result")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ClearSearch handles DELETE /search.
func (h *Handler) ClearSearch(w http.ResponseWriter, r *http.Request) {
	if err := h.updateState(r, func(st *session.Interaction) {
		st.Search = nil
	}); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportSearch handles GET /search/export.
func (h *Handler) ExportSearch(w http.ResponseWriter, r *http.Request) {
	res := h.state(r).Search
	if res == nil {
		writeError(w, http.StatusNotFound, "no search result")
		return
	}
	cols, rows := export.Entries(res.Entries)
	if err := export.ServeCSV(w, "search_results.csv", cols, rows); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
