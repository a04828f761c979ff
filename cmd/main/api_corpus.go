package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/CTAG07/Flattery/pkg/compliment"
	"github.com/CTAG07/Flattery/pkg/corpus"
	"github.com/CTAG07/Flattery/pkg/preprocess"
)

// maxTrainBody bounds the raw corpus accepted by POST /api/corpus/train.
const maxTrainBody = 32 << 20

// sourceFunc builds a corpus source for a path, CSV column and clean flag.
type sourceFunc func(path, column string, clean bool) compliment.Source

// CorpusAPI rebuilds the current model from a corpus.
type CorpusAPI struct {
	svc    *compliment.Service
	cm     *ConfigManager
	source sourceFunc
	logger *slog.Logger
}

func NewCorpusAPI(svc *compliment.Service, cm *ConfigManager, source sourceFunc, logger *slog.Logger) *CorpusAPI {
	return &CorpusAPI{
		svc:    svc,
		cm:     cm,
		source: source,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/corpus endpoints.
func (c *CorpusAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/corpus/reload", c.handleReload)
	mux.HandleFunc("/api/corpus/train", c.handleTrain)
}

// ReloadRequest is the body of POST /api/corpus/reload. Empty fields fall back
// to corpus_config.
type ReloadRequest struct {
	Path       string `json:"path"`
	Column     string `json:"column"`
	Preprocess *bool  `json:"preprocess"`
}

// handleReload trains a new model from a file or directory on the server and
// swaps it in. On failure the current model stays in place.
func (c *CorpusAPI) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeCorpusWrite) {
		return
	}

	var req ReloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	cfg := c.cm.Get().Corpus
	if req.Path == "" {
		req.Path = cfg.DefaultPath
	}
	if req.Column == "" {
		req.Column = cfg.Column
	}
	clean := cfg.Preprocess
	if req.Preprocess != nil {
		clean = *req.Preprocess
	}
	if req.Path == "" {
		respondWithError(w, http.StatusBadRequest, "A corpus path is required")
		return
	}

	c.reload(r.Context(), w, c.source(req.Path, req.Column, clean), "path", req.Path)
}

// handleTrain trains a new model from the request body, one sentence per line.
// ?preprocess=true runs the text cleaner first.
func (c *CorpusAPI) handleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeCorpusWrite) {
		return
	}

	clean := false
	if v := r.URL.Query().Get("preprocess"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid preprocess flag")
			return
		}
		clean = b
	}

	lines, err := corpus.LoadLines(http.MaxBytesReader(w, r.Body, maxTrainBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Failed to read corpus body: "+err.Error())
		return
	}
	if clean {
		lines = preprocess.NewCleaner(preprocess.WithLogger(c.logger)).Clean(lines)
	}

	c.reload(r.Context(), w, compliment.Sentences(lines), "source", "request body")
}

func (c *CorpusAPI) reload(ctx context.Context, w http.ResponseWriter, source compliment.Source, args ...any) {
	m, err := c.svc.Reload(ctx, source)
	if err != nil {
		respondWithDomainError(w, c.logger, "Reload failed", err)
		return
	}
	c.logger.Info("Model retrained", append(args, "sentences", m.Sentences())...)
	respondWithJSON(w, http.StatusOK, m.Stats())
}
