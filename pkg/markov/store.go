package markov

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ErrModelNotFound is returned when a named model does not exist in the store.
var ErrModelNotFound = errors.New("markov: model not found")

// ModelInfo holds the metadata of a model saved in a Store.
type ModelInfo struct {
	Id             int       `json:"id"`
	Name           string    `json:"name"`
	Sentences      int       `json:"sentences"`
	EndTransitions bool      `json:"end_transitions"`
	SavedAt        time.Time `json:"saved_at"`
}

// SetupSchema initializes the tables used by Store in the provided database.
// It is idempotent and safe to call on an already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaModels = `
CREATE TABLE IF NOT EXISTS markov_models (
    model_id INTEGER PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    sentences INTEGER NOT NULL DEFAULT 0,
    end_transitions INTEGER NOT NULL DEFAULT 0,
    saved_at TEXT NOT NULL
);
`
		schemaVocab = `
CREATE TABLE IF NOT EXISTS markov_vocabulary (
    model_id INTEGER NOT NULL,
    token_id INTEGER NOT NULL,
    token_text TEXT NOT NULL,
    PRIMARY KEY (model_id, token_id)
);
`
		schemaChains = `
CREATE TABLE IF NOT EXISTS markov_chains (
    model_id INTEGER NOT NULL,
    prefix_id INTEGER NOT NULL,
    next_token_id INTEGER NOT NULL,
    frequency  INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (model_id, prefix_id, next_token_id)
);
`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}

	// If the transaction succeeds, tx.Commit() will be called first, and the rollback will do nothing. If it fails, this will clean up.
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaModels); err != nil {
		return fmt.Errorf("could not create models schema: %w", err)
	}

	if _, err = tx.Exec(schemaVocab); err != nil {
		return fmt.Errorf("could not create vocabulary schema: %w", err)
	}

	if _, err = tx.Exec(schemaChains); err != nil {
		return fmt.Errorf("could not create chains schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}

// Store saves and loads model snapshots by name. It holds the database
// connection and prepared SQL statements for the read paths.
type Store struct {
	db               *sql.DB
	stmtGetModelInfo *sql.Stmt
	stmtGetModels    *sql.Stmt
	stmtGetVocab     *sql.Stmt
	stmtGetChains    *sql.Stmt
	logger           *slog.Logger
}

// NewStore creates a Store over a database that SetupSchema has been run on.
// It pre-compiles the SQL statements, returning an error if any preparation
// fails.
func NewStore(db *sql.DB) (*Store, error) {
	stmtGetModelInfo, err := db.Prepare(`SELECT model_id, sentences, end_transitions, saved_at FROM markov_models WHERE model_name = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetModels, err := db.Prepare(`SELECT model_id, model_name, sentences, end_transitions, saved_at FROM markov_models ORDER BY model_name;`)
	if err != nil {
		return nil, err
	}

	stmtGetVocab, err := db.Prepare(`SELECT token_id, token_text FROM markov_vocabulary WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}

	stmtGetChains, err := db.Prepare(`SELECT prefix_id, next_token_id, frequency FROM markov_chains WHERE model_id = ?;`)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:               db,
		stmtGetModelInfo: stmtGetModelInfo,
		stmtGetModels:    stmtGetModels,
		stmtGetVocab:     stmtGetVocab,
		stmtGetChains:    stmtGetChains,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases all prepared SQL statements held by the Store.
func (s *Store) Close() {
	_ = s.stmtGetModelInfo.Close()
	_ = s.stmtGetModels.Close()
	_ = s.stmtGetVocab.Close()
	_ = s.stmtGetChains.Close()
}

// SetLogger sets the logger for the Store. By default, all logs are discarded.
func (s *Store) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// ModelInfos returns the metadata of every saved model, ordered by name.
func (s *Store) ModelInfos(ctx context.Context) ([]ModelInfo, error) {
	rows, err := s.stmtGetModels.QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	models := make([]ModelInfo, 0)
	for rows.Next() {
		var info ModelInfo
		var savedAt string
		if err = rows.Scan(&info.Id, &info.Name, &info.Sentences, &info.EndTransitions, &savedAt); err != nil {
			return nil, err
		}
		info.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
		models = append(models, info)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return models, nil
}

// ModelInfo returns the metadata of a single saved model.
func (s *Store) ModelInfo(ctx context.Context, name string) (ModelInfo, error) {
	info := ModelInfo{Name: name}
	var savedAt string
	err := s.stmtGetModelInfo.QueryRowContext(ctx, name).Scan(&info.Id, &info.Sentences, &info.EndTransitions, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ModelInfo{}, fmt.Errorf("%w: '%s'", ErrModelNotFound, name)
	}
	if err != nil {
		return ModelInfo{}, err
	}
	info.SavedAt, _ = time.Parse(time.RFC3339Nano, savedAt)
	return info, nil
}

// SaveModel stores m under name, replacing any model previously saved under
// the same name. The entire operation is performed within a single
// transaction.
func (s *Store) SaveModel(ctx context.Context, name string, m *Model) (ModelInfo, error) {
	snapshot := m.Snapshot()
	savedAt := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("could not begin transaction for save: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	var modelID int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO markov_models (model_name, sentences, end_transitions, saved_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(model_name) DO UPDATE SET sentences = excluded.sentences, end_transitions = excluded.end_transitions, saved_at = excluded.saved_at
		RETURNING model_id;
	`, name, snapshot.Sentences, snapshot.EndTransitions, savedAt.Format(time.RFC3339Nano)).Scan(&modelID)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to upsert model '%s': %w", name, err)
	}

	if _, err = tx.ExecContext(ctx, "DELETE FROM markov_chains WHERE model_id = ?", modelID); err != nil {
		return ModelInfo{}, fmt.Errorf("failed to clear chains for model %d: %w", modelID, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM markov_vocabulary WHERE model_id = ?", modelID); err != nil {
		return ModelInfo{}, fmt.Errorf("failed to clear vocabulary for model %d: %w", modelID, err)
	}

	stmtInsertVocab, err := tx.PrepareContext(ctx, `INSERT INTO markov_vocabulary (model_id, token_id, token_text) VALUES (?, ?, ?);`)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to prepare vocabulary insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertVocab)

	for text, id := range snapshot.Vocabulary {
		if _, err = stmtInsertVocab.ExecContext(ctx, modelID, id, text); err != nil {
			return ModelInfo{}, fmt.Errorf("failed to insert vocab '%s': %w", text, err)
		}
	}

	stmtInsertChain, err := tx.PrepareContext(ctx, `INSERT INTO markov_chains (model_id, prefix_id, next_token_id, frequency) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return ModelInfo{}, fmt.Errorf("failed to prepare chain insert statement: %w", err)
	}
	defer func(stmt *sql.Stmt) {
		_ = stmt.Close()
	}(stmtInsertChain)

	for _, link := range snapshot.Chains {
		if _, err = stmtInsertChain.ExecContext(ctx, modelID, link.PrefixID, link.NextTokenID, link.Frequency); err != nil {
			return ModelInfo{}, fmt.Errorf("failed to insert chain link (%d -> %d): %w", link.PrefixID, link.NextTokenID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return ModelInfo{}, err
	}

	s.logger.InfoContext(ctx, "Model saved",
		slog.String("model_name", name),
		slog.Int("model_id", modelID),
		slog.Int("vocab_items_saved", len(snapshot.Vocabulary)),
		slog.Int("chains_saved", len(snapshot.Chains)),
	)

	return ModelInfo{
		Id:             modelID,
		Name:           name,
		Sentences:      snapshot.Sentences,
		EndTransitions: snapshot.EndTransitions,
		SavedAt:        savedAt,
	}, nil
}

// LoadModel rebuilds the model saved under name. It returns an error wrapping
// ErrModelNotFound if there is no such model.
func (s *Store) LoadModel(ctx context.Context, name string) (*Model, error) {
	info, err := s.ModelInfo(ctx, name)
	if err != nil {
		return nil, err
	}

	snapshot := ExportedModel{
		Sentences:      info.Sentences,
		EndTransitions: info.EndTransitions,
		Vocabulary:     make(map[string]int),
	}

	vRows, err := s.stmtGetVocab.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query vocabulary for model %d: %w", info.Id, err)
	}
	for vRows.Next() {
		var id int
		var text string
		if err = vRows.Scan(&id, &text); err != nil {
			_ = vRows.Close()
			return nil, err
		}
		snapshot.Vocabulary[text] = id
	}
	_ = vRows.Close()
	if err = vRows.Err(); err != nil {
		return nil, err
	}

	cRows, err := s.stmtGetChains.QueryContext(ctx, info.Id)
	if err != nil {
		return nil, fmt.Errorf("could not query chains for model %d: %w", info.Id, err)
	}
	for cRows.Next() {
		var link ExportedChain
		if err = cRows.Scan(&link.PrefixID, &link.NextTokenID, &link.Frequency); err != nil {
			_ = cRows.Close()
			return nil, err
		}
		snapshot.Chains = append(snapshot.Chains, link)
	}
	_ = cRows.Close()
	if err = cRows.Err(); err != nil {
		return nil, err
	}

	m, err := FromSnapshot(snapshot)
	if err != nil {
		return nil, fmt.Errorf("model '%s' is corrupt: %w", name, err)
	}

	s.logger.InfoContext(ctx, "Model loaded",
		slog.String("model_name", name),
		slog.Int("model_id", info.Id),
		slog.Int("chains_loaded", len(snapshot.Chains)),
	)
	return m, nil
}

// RemoveModel deletes a saved model and all of its associated data. The
// operation is performed within a transaction.
func (s *Store) RemoveModel(ctx context.Context, name string) error {
	info, err := s.ModelInfo(ctx, name)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.ExecContext(ctx, "DELETE FROM markov_chains WHERE model_id = ?", info.Id); err != nil {
		return fmt.Errorf("failed to remove chains for model %d: %w", info.Id, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM markov_vocabulary WHERE model_id = ?", info.Id); err != nil {
		return fmt.Errorf("failed to remove vocabulary for model %d: %w", info.Id, err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM markov_models WHERE model_id = ?", info.Id); err != nil {
		return fmt.Errorf("failed to remove model %d: %w", info.Id, err)
	}

	s.logger.InfoContext(ctx, "Model removed successfully",
		slog.String("model_name", name),
		slog.Int("model_id", info.Id),
	)

	return tx.Commit()
}
