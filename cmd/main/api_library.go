package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CTAG07/Drosera/pkg/library"
)

// LibraryAPI holds the dependencies for the snippet library handlers.
type LibraryAPI struct {
	store  *library.Store
	logger *slog.Logger
}

func NewLibraryAPI(store *library.Store, logger *slog.Logger) *LibraryAPI {
	return &LibraryAPI{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/library endpoints. The
// export and import paths shadow snippets with those exact names.
func (l *LibraryAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/library/export", l.handleExport)
	mux.HandleFunc("/api/library/import", l.handleImport)
	mux.HandleFunc("/api/library", l.handleCollection)
	mux.HandleFunc("/api/library/", l.handleSnippet)
}

// SaveSnippetRequest is the expected JSON body for creating or replacing a
// snippet.
type SaveSnippetRequest struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Tags    string `json:"tags"`
}

// TagsRequest is the expected JSON body for replacing a snippet's tags.
type TagsRequest struct {
	Tags string `json:"tags"`
}

// handleCollection serves GET (list, or search with ?q=) and POST (save) on
// the whole library.
func (l *LibraryAPI) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !hasScope(r, scopeLibraryRead) {
			respondWithError(w, http.StatusForbidden, "Forbidden: requires 'library:read' scope")
			return
		}
		snippets, err := l.store.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			l.logger.Error("Failed to list snippets", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Database query failed")
			return
		}
		respondWithJSON(w, http.StatusOK, snippets)

	case http.MethodPost:
		if !hasScope(r, scopeLibraryWrite) {
			respondWithError(w, http.StatusForbidden, "Forbidden: requires 'library:write' scope")
			return
		}
		var req SaveSnippetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		if req.Name == "" {
			respondWithError(w, http.StatusBadRequest, "Snippet name is required")
			return
		}
		if err := l.store.Save(r.Context(), req.Name, req.Content, req.Tags); err != nil {
			l.logger.Error("Failed to save snippet", "name", req.Name, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to save snippet")
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSnippet serves GET, DELETE and PATCH (tags only) on a single snippet.
func (l *LibraryAPI) handleSnippet(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/library/"), "/")
	if name == "" {
		respondWithError(w, http.StatusBadRequest, "Snippet name missing from URL")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !hasScope(r, scopeLibraryRead) {
			respondWithError(w, http.StatusForbidden, "Forbidden: requires 'library:read' scope")
			return
		}
		sn, err := l.store.Get(r.Context(), name)
		if err != nil {
			l.respondStoreError(w, name, err)
			return
		}
		respondWithJSON(w, http.StatusOK, sn)

	case http.MethodDelete:
		if !hasScope(r, scopeLibraryWrite) {
			respondWithError(w, http.StatusForbidden, "Forbidden: requires 'library:write' scope")
			return
		}
		if err := l.store.Delete(r.Context(), name); err != nil {
			l.respondStoreError(w, name, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodPatch:
		if !hasScope(r, scopeLibraryWrite) {
			respondWithError(w, http.StatusForbidden, "Forbidden: requires 'library:write' scope")
			return
		}
		var req TagsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		if err := l.store.SetTags(r.Context(), name, req.Tags); err != nil {
			l.respondStoreError(w, name, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, DELETE, PATCH")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (l *LibraryAPI) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !hasScope(r, scopeLibraryRead) {
		respondWithError(w, http.StatusForbidden, "Forbidden: requires 'library:read' scope")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="library.json"`)
	if err := l.store.Export(r.Context(), w); err != nil {
		// Headers are already gone; all we can do is log.
		l.logger.Error("Failed to export library", "error", err)
	}
}

func (l *LibraryAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !hasScope(r, scopeLibraryWrite) {
		respondWithError(w, http.StatusForbidden, "Forbidden: requires 'library:write' scope")
		return
	}

	if err := l.store.Import(r.Context(), r.Body); err != nil {
		l.logger.Error("Failed to import library", "error", err)
		respondWithError(w, http.StatusBadRequest, "Import failed: "+err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (l *LibraryAPI) respondStoreError(w http.ResponseWriter, name string, err error) {
	if errors.Is(err, library.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Snippet not found")
		return
	}
	l.logger.Error("Library operation failed", "name", name, "error", err)
	respondWithError(w, http.StatusInternalServerError, "Database operation failed")
}
