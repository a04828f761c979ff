package markov

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	_ "modernc.org/sqlite"
)

// setupTestDB creates a new SQLite database file and a Store for testing.
// It uses t.Cleanup to ensure resources are released.
func setupTestDB(t *testing.T) (*sql.DB, *Store) {
	dbFile := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite", dbFile+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := SetupSchema(db); err != nil {
		t.Fatalf("failed to set up schema: %v", err)
	}

	s, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(s.Close)

	return db, s
}

// successorMap flattens the successor table of t into text -> frequency.
func successorMap(m *Model, t Token) map[string]int {
	transitions, ok := m.Successors(t)
	if !ok {
		return nil
	}
	out := make(map[string]int, len(transitions))
	for _, tr := range transitions {
		out[tr.Next.String()] = tr.Freq
	}
	return out
}

// repeat returns n copies of sentence.
func repeat(sentence string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = sentence
	}
	return out
}

var (
	benchmarkCorpus []string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus builds a synthetic corpus of compliment-like sentences.
func createBenchmarkCorpus() []string {
	corpusOnce.Do(func() {
		subjects := []string{"you", "your smile", "your laugh", "your code", "your taste in music"}
		verbs := []string{"is", "lights up", "makes", "brightens", "improves"}
		objects := []string{"the room", "my day", "everything", "the whole team", "every single meeting"}
		for i := 0; i < 5000; i++ {
			benchmarkCorpus = append(benchmarkCorpus, fmt.Sprintf("%s %s %s",
				subjects[i%len(subjects)], verbs[(i/5)%len(verbs)], objects[(i/25)%len(objects)]))
		}
	})
	return benchmarkCorpus
}
