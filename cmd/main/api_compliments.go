package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/CTAG07/Flattery/pkg/compliment"
	"github.com/CTAG07/Flattery/pkg/markov"
)

// ComplimentAPI holds the dependencies for generating and saving compliments.
type ComplimentAPI struct {
	svc    *compliment.Service
	saved  *SavedStore
	cm     *ConfigManager
	logger *slog.Logger
}

func NewComplimentAPI(svc *compliment.Service, saved *SavedStore, cm *ConfigManager, logger *slog.Logger) *ComplimentAPI {
	return &ComplimentAPI{
		svc:    svc,
		saved:  saved,
		cm:     cm,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/compliments endpoints.
func (c *ComplimentAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/compliments", c.handleGenerate)
	mux.HandleFunc("/api/compliments/text", c.handleGenerateText)
	mux.HandleFunc("/api/compliments/saved", c.handleSaved)
}

// SaveRequest is the body of POST /api/compliments/saved.
type SaveRequest struct {
	Texts []string `json:"texts"`
}

// errInvalidParam marks a malformed or out-of-range query parameter.
var errInvalidParam = errors.New("invalid parameter")

// generateParams reads count and optional generation overrides from the
// query string. Missing values fall back to generate_config, and overrides
// are capped by its limits.
func (c *ComplimentAPI) generateParams(q url.Values) (int, []markov.GenerateOption, error) {
	cfg := c.cm.Generate()
	opts := cfg.GenerateOptions()

	count := 1
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %q is not a number", compliment.ErrInvalidCount, v)
		}
		count = n
	}

	ints := []struct {
		name  string
		limit int // 0 means unbounded
		opt   func(int) markov.GenerateOption
	}{
		{"max_length", cfg.MaxLengthLimit, markov.WithMaxLength},
		{"extend_attempts", cfg.ExtendAttemptsLimit, markov.WithExtendAttempts},
		{"top_k", 0, markov.WithTopK},
	}
	for _, p := range ints {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: %s %q is not a number", errInvalidParam, p.name, v)
		}
		if p.limit > 0 && n > p.limit {
			return 0, nil, fmt.Errorf("%w: %s %d exceeds the limit of %d", errInvalidParam, p.name, n, p.limit)
		}
		opts = append(opts, p.opt(n))
	}

	if v := q.Get("temperature"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: temperature %q", errInvalidParam, v)
		}
		opts = append(opts, markov.WithTemperature(t))
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: seed %q", errInvalidParam, v)
		}
		opts = append(opts, markov.WithRand(rand.New(rand.NewPCG(seed, seed))))
	}
	return count, opts, nil
}

func (c *ComplimentAPI) generate(w http.ResponseWriter, r *http.Request) ([]compliment.Compliment, bool) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return nil, false
	}
	if !requireScope(w, r, scopeComplimentsRead) {
		return nil, false
	}

	count, opts, err := c.generateParams(r.URL.Query())
	if err != nil {
		respondWithDomainError(w, c.logger, "Invalid request", err)
		return nil, false
	}
	cs, err := c.svc.Generate(count, opts...)
	if err != nil {
		respondWithDomainError(w, c.logger, "Generation failed", err)
		return nil, false
	}
	return cs, true
}

// handleGenerate returns count compliments as JSON.
func (c *ComplimentAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	cs, ok := c.generate(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, cs)
}

// handleGenerateText returns count compliments rendered with the line template.
func (c *ComplimentAPI) handleGenerateText(w http.ResponseWriter, r *http.Request) {
	cs, ok := c.generate(w, r)
	if !ok {
		return
	}
	f, err := compliment.NewFormatter(c.cm.Output().LineTemplate)
	if err != nil {
		respondWithDomainError(w, c.logger, "Invalid line template", err)
		return
	}
	text, err := f.String(cs)
	if err != nil {
		respondWithDomainError(w, c.logger, "Rendering failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text + "\n"))
}

// handleSaved stores, lists or clears saved compliments.
func (c *ComplimentAPI) handleSaved(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, scopeComplimentsRead) {
			return
		}
		saved, err := c.saved.List(r.Context())
		if err != nil {
			respondWithDomainError(w, c.logger, "Failed to list saved compliments", err)
			return
		}
		respondWithJSON(w, http.StatusOK, saved)

	case http.MethodPost:
		if !requireScope(w, r, scopeComplimentsWrite) {
			return
		}
		var req SaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
			return
		}
		texts := make([]string, 0, len(req.Texts))
		for _, t := range req.Texts {
			if t = strings.TrimSpace(t); t != "" {
				texts = append(texts, t)
			}
		}
		if len(texts) == 0 {
			respondWithError(w, http.StatusBadRequest, "At least one non-empty text is required")
			return
		}

		saved, err := c.saved.Add(r.Context(), texts)
		if err != nil {
			respondWithDomainError(w, c.logger, "Failed to save compliments", err)
			return
		}
		if path := c.cm.Output().SavePath; path != "" {
			if err = compliment.AppendFile(path, strings.Join(texts, "\n")); err != nil {
				respondWithDomainError(w, c.logger, "Failed to append to save file", err)
				return
			}
		}
		c.logger.Info("Compliments saved", "count", len(saved))
		respondWithJSON(w, http.StatusCreated, saved)

	case http.MethodDelete:
		if !requireScope(w, r, scopeComplimentsWrite) {
			return
		}
		n, err := c.saved.Clear(r.Context())
		if err != nil {
			respondWithDomainError(w, c.logger, "Failed to clear saved compliments", err)
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]int64{"deleted": n})

	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
