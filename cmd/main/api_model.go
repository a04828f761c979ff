package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CTAG07/Flattery/pkg/compliment"
	"github.com/CTAG07/Flattery/pkg/markov"
)

// maxImportBody bounds an uploaded model export.
const maxImportBody = 64 << 20

// ModelAPI holds the dependencies for the model management handlers.
type ModelAPI struct {
	svc    *compliment.Service
	store  *markov.Store
	logger *slog.Logger
}

// NewModelAPI creates a new instance of the ModelAPI.
func NewModelAPI(svc *compliment.Service, store *markov.Store, logger *slog.Logger) *ModelAPI {
	return &ModelAPI{
		svc:    svc,
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/model endpoints.
func (m *ModelAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/model/stats", m.handleStats)
	mux.HandleFunc("/api/model/prune", m.handlePrune)
	mux.HandleFunc("/api/model/export", m.handleExport)
	mux.HandleFunc("/api/model/import", m.handleImport)
	mux.HandleFunc("/api/model/snapshots", m.handleListSnapshots)
	mux.HandleFunc("/api/model/snapshots/", m.handleSnapshotByName)
}

// PruneRequest is the body of POST /api/model/prune. With Vocabulary set,
// words whose incoming frequency is below MinFreq are removed instead of
// individual links.
type PruneRequest struct {
	MinFreq    int  `json:"minFreq"`
	Vocabulary bool `json:"vocabulary"`
}

// current returns the current model or writes a 404.
func (m *ModelAPI) current(w http.ResponseWriter) (*markov.Model, bool) {
	model := m.svc.Model()
	if model == nil {
		respondWithError(w, http.StatusNotFound, compliment.ErrNoModel.Error())
		return nil, false
	}
	return model, true
}

// install makes model current, serialized with reloads and prunes.
func (m *ModelAPI) install(w http.ResponseWriter, model *markov.Model) {
	installed, err := m.svc.Replace(func(*markov.Model) (*markov.Model, error) {
		return model, nil
	})
	if err != nil {
		respondWithDomainError(w, m.logger, "Failed to install model", err)
		return
	}
	respondWithJSON(w, http.StatusOK, installed.Stats())
}

func (m *ModelAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeModelRead) {
		return
	}
	model, ok := m.current(w)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, model.Stats())
}

// handlePrune replaces the current model with a pruned copy.
func (m *ModelAPI) handlePrune(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeModelWrite) {
		return
	}
	var req PruneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if req.MinFreq < 0 {
		respondWithError(w, http.StatusBadRequest, "minFreq must not be negative")
		return
	}
	var before markov.ModelStats
	pruned, err := m.svc.Replace(func(model *markov.Model) (*markov.Model, error) {
		if model == nil {
			return nil, compliment.ErrNoModel
		}
		before = model.Stats()
		if req.Vocabulary {
			return model.PruneVocabulary(req.MinFreq), nil
		}
		return model.Prune(req.MinFreq), nil
	})
	if err != nil {
		respondWithDomainError(w, m.logger, "Prune failed", err)
		return
	}

	after := pruned.Stats()
	m.logger.Info("Model pruned",
		slog.Int("min_freq", req.MinFreq),
		slog.Bool("vocabulary", req.Vocabulary),
		slog.Int("chains_before", before.TotalChains),
		slog.Int("chains_after", after.TotalChains),
	)
	respondWithJSON(w, http.StatusOK, after)
}

func (m *ModelAPI) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeModelRead) {
		return
	}
	model, ok := m.current(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=\"model.json\"")
	if err := model.Export(w); err != nil {
		m.logger.Error("Failed to export model", "error", err)
	}
}

// handleImport replaces the current model with an uploaded export.
func (m *ModelAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeModelWrite) {
		return
	}

	model, err := markov.Import(http.MaxBytesReader(w, r.Body, maxImportBody))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Import failed: %v", err))
		return
	}
	m.install(w, model)
}

func (m *ModelAPI) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeModelRead) {
		return
	}
	infos, err := m.store.ModelInfos(r.Context())
	if err != nil {
		respondWithDomainError(w, m.logger, "Failed to retrieve snapshots", err)
		return
	}
	respondWithJSON(w, http.StatusOK, infos)
}

// handleSnapshotByName saves (POST), loads (PUT), inspects (GET) or removes
// (DELETE) a named snapshot.
func (m *ModelAPI) handleSnapshotByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/model/snapshots/"), "/")
	if name == "" || strings.Contains(name, "/") {
		respondWithError(w, http.StatusBadRequest, "Snapshot name not specified")
		return
	}

	switch r.Method {
	case http.MethodGet:
		if !requireScope(w, r, scopeModelRead) {
			return
		}
		info, err := m.store.ModelInfo(r.Context(), name)
		if err != nil {
			respondWithDomainError(w, m.logger, "Failed to get snapshot", err)
			return
		}
		respondWithJSON(w, http.StatusOK, info)

	case http.MethodPost:
		if !requireScope(w, r, scopeModelWrite) {
			return
		}
		model, ok := m.current(w)
		if !ok {
			return
		}
		info, err := m.store.SaveModel(r.Context(), name, model)
		if err != nil {
			respondWithDomainError(w, m.logger, "Failed to save snapshot", err)
			return
		}
		respondWithJSON(w, http.StatusCreated, info)

	case http.MethodPut:
		if !requireScope(w, r, scopeModelWrite) {
			return
		}
		model, err := m.store.LoadModel(r.Context(), name)
		if err != nil {
			respondWithDomainError(w, m.logger, "Failed to load snapshot", err)
			return
		}
		m.install(w, model)

	case http.MethodDelete:
		if !requireScope(w, r, scopeModelWrite) {
			return
		}
		if err := m.store.RemoveModel(r.Context(), name); err != nil {
			respondWithDomainError(w, m.logger, "Failed to remove snapshot", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, POST, PUT, DELETE")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
