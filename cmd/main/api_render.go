package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Drosera/pkg/directive"
	"github.com/CTAG07/Drosera/pkg/library"
)

// RenderAPI holds the dependencies for the render endpoint.
type RenderAPI struct {
	store  *library.Store
	logger *slog.Logger
}

func NewRenderAPI(store *library.Store, logger *slog.Logger) *RenderAPI {
	return &RenderAPI{
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for the render endpoint.
func (ra *RenderAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/render", ra.handleRender)
}

// RenderRequest is the expected JSON body for a render call. Exactly one of
// Template (inline source) or Snippet (library name) must be set. Include
// directives resolve against the snippet library.
type RenderRequest struct {
	Template string          `json:"template,omitempty"`
	Snippet  string          `json:"snippet,omitempty"`
	Context  json.RawMessage `json:"context,omitempty"`
}

// handleRender renders a template to a buffer and returns it as plain text.
// Rendering to a buffer first means a failed render returns a clean error
// response instead of truncated output.
func (ra *RenderAPI) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !hasScope(r, scopeRender) {
		respondWithError(w, http.StatusForbidden, "Forbidden: requires 'render' scope")
		return
	}

	var req RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}

	src := req.Template
	switch {
	case req.Template != "" && req.Snippet != "":
		respondWithError(w, http.StatusBadRequest, "Set either 'template' or 'snippet', not both")
		return
	case req.Snippet != "":
		sn, err := ra.store.Get(r.Context(), req.Snippet)
		if err != nil {
			if errors.Is(err, library.ErrNotFound) {
				respondWithError(w, http.StatusNotFound, "Snippet not found")
				return
			}
			ra.logger.Error("Failed to load snippet for render", "snippet", req.Snippet, "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to load snippet")
			return
		}
		src = sn.Content
	case req.Template == "":
		respondWithError(w, http.StatusBadRequest, "One of 'template' or 'snippet' is required")
		return
	}

	ctx := directive.Context{}
	if len(req.Context) > 0 {
		var err error
		if ctx, err = directive.ParseContext(req.Context); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid context: "+err.Error())
			return
		}
	}

	tmpl, err := directive.New(src,
		directive.WithResolver(ra.store),
		directive.WithLogger(ra.logger),
	)
	if err != nil {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Render(&buf, ctx); err != nil {
		switch {
		case errors.Is(err, directive.ErrTypeMismatch),
			errors.Is(err, directive.ErrLoopState),
			errors.Is(err, directive.ErrParse),
			errors.Is(err, library.ErrNotFound):
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			ra.logger.Error("Render failed", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Render failed")
		}
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
