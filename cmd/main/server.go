package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Drosera/pkg/library"
)

// Server wires the snippet store and the API handlers onto a single mux.
type Server struct {
	config     *Config
	db         *sql.DB
	logger     *slog.Logger
	store      *library.Store
	authAPI    *AuthAPI
	renderAPI  *RenderAPI
	libraryAPI *LibraryAPI
	apiMux     *http.ServeMux
}

func NewServer(config *Config, logger *slog.Logger, db *sql.DB) (*Server, error) {
	if err := setupAuthSchema(db); err != nil {
		return nil, fmt.Errorf("failed to set up auth schema: %w", err)
	}
	if err := library.SetupSchema(db); err != nil {
		return nil, fmt.Errorf("failed to set up library schema: %w", err)
	}

	store, err := library.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to create snippet store: %w", err)
	}
	store.SetLogger(logger)

	authAPI := NewAuthAPI(db, logger)
	renderAPI := NewRenderAPI(store, logger)
	libraryAPI := NewLibraryAPI(store, logger)

	server := &Server{
		config:     config,
		db:         db,
		logger:     logger,
		store:      store,
		authAPI:    authAPI,
		renderAPI:  renderAPI,
		libraryAPI: libraryAPI,
		apiMux:     http.NewServeMux(),
	}

	apiMux := http.NewServeMux()
	server.authAPI.RegisterRoutes(apiMux)
	server.renderAPI.RegisterRoutes(apiMux)
	server.libraryAPI.RegisterRoutes(apiMux)

	// Every API route passes through authentication first.
	server.apiMux.Handle("/api/", server.authAPI.Authenticate(apiMux))

	return server, nil
}

// Close releases the server's store. The database connection is owned by the
// caller.
func (s *Server) Close() {
	s.store.Close()
}
