package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Flattery/pkg/compliment"
	"github.com/CTAG07/Flattery/pkg/corpus"
	"github.com/CTAG07/Flattery/pkg/markov"
	"github.com/CTAG07/Flattery/pkg/preprocess"
)

type Server struct {
	cm            *ConfigManager
	db            *sql.DB
	logger        *slog.Logger
	svc           *compliment.Service
	store         *markov.Store
	saved         *SavedStore
	authAPI       *AuthAPI
	complimentAPI *ComplimentAPI
	corpusAPI     *CorpusAPI
	modelAPI      *ModelAPI
	serverAPI     *ServerAPI
	apiMux        *http.ServeMux
}

func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {
	config := cm.Get()

	store, err := markov.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("error creating markov store: %w", err)
	}
	store.SetLogger(logger)

	svc := compliment.NewService(nil,
		compliment.WithMaxCount(config.Generate.MaxCount),
		compliment.WithBuildOptions(markov.WithEndTransitions(config.Corpus.EndTransitions)),
		compliment.WithLogger(logger),
	)
	saved := NewSavedStore(db)

	server := &Server{
		cm:     cm,
		db:     db,
		logger: logger,
		svc:    svc,
		store:  store,
		saved:  saved,
		apiMux: http.NewServeMux(),
	}
	server.authAPI = NewAuthAPI(db, logger)
	server.complimentAPI = NewComplimentAPI(svc, saved, cm, logger)
	server.corpusAPI = NewCorpusAPI(svc, cm, server.corpusSource, logger)
	server.modelAPI = NewModelAPI(svc, store, logger)
	server.serverAPI = NewServerAPI(cm, actionChan, logger)

	apiMux := http.NewServeMux()
	server.authAPI.RegisterRoutes(apiMux)
	server.complimentAPI.RegisterRoutes(apiMux)
	server.corpusAPI.RegisterRoutes(apiMux)
	server.modelAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// The health check stays unauthenticated so something like docker can use it.
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", server.authAPI.Authenticate(apiMux))

	return server, nil
}

// Close releases the prepared statements of the model store.
func (s *Server) Close() {
	s.store.Close()
}

// corpusSource returns a Source reading path with the given CSV column,
// optionally running the text cleaner over every file.
func (s *Server) corpusSource(path, column string, clean bool) compliment.Source {
	opts := []corpus.Option{corpus.WithColumn(column), corpus.WithLogger(s.logger)}
	if clean {
		opts = append(opts, corpus.WithCleaner(preprocess.NewCleaner(preprocess.WithLogger(s.logger))))
	}
	loader := corpus.NewLoader(opts...)
	return func(ctx context.Context) ([]string, error) {
		return loader.Load(ctx, path)
	}
}

// LoadDefaultCorpus trains the first model from corpus_config. A missing
// default corpus leaves the server without a model.
func (s *Server) LoadDefaultCorpus(ctx context.Context) error {
	cfg := s.cm.Get().Corpus
	if cfg.DefaultPath == "" {
		s.logger.Warn("No default corpus configured, starting without a model")
		return nil
	}
	m, err := s.svc.Reload(ctx, s.corpusSource(cfg.DefaultPath, cfg.Column, cfg.Preprocess))
	if err != nil {
		return err
	}
	s.logger.Info("Default corpus loaded", "path", cfg.DefaultPath, "sentences", m.Sentences())
	return nil
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, compliment.ErrInvalidCount),
		errors.Is(err, errInvalidParam),
		errors.Is(err, markov.ErrInvalidMaxLength),
		errors.Is(err, markov.ErrInvalidExtension),
		errors.Is(err, corpus.ErrColumnNotFound),
		errors.Is(err, fs.ErrNotExist):
		return http.StatusBadRequest
	case errors.Is(err, markov.ErrModelNotFound),
		errors.Is(err, compliment.ErrNoModel):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondWithDomainError writes err with the status statusForError picks and
// logs server-side failures.
func respondWithDomainError(w http.ResponseWriter, logger *slog.Logger, msg string, err error) {
	code := statusForError(err)
	if code >= http.StatusInternalServerError {
		logger.Error(msg, "error", err)
	}
	respondWithError(w, code, fmt.Sprintf("%s: %v", msg, err))
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			fmt.Printf("ERROR: Failed to encode JSON response: %v\n", err)
		}
	}
}
