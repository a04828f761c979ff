// Package cli implements the flatter command line tool.
package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/CTAG07/Flattery/pkg/corpus"
	"github.com/CTAG07/Flattery/pkg/markov"
	"github.com/CTAG07/Flattery/pkg/preprocess"
	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"
)

var (
	dbPath     string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "flatter",
	Short: "Generate compliments with a Markov chain",
	Long:  "Train a word-level Markov chain on a corpus of compliments and generate new ones. Models can be kept as named snapshots in SQLite.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Snapshot database path (default: $FLATTERY_DB or ./data/flattery.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "text", "Output format: json or text")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("FLATTERY_DB"); env != "" {
		return env
	}
	return filepath.Join(".", "data", "flattery.db")
}

// snapshotStore is a markov.Store that owns its database.
type snapshotStore struct {
	*markov.Store
	db *sql.DB
}

func (s *snapshotStore) Close() {
	s.Store.Close()
	_ = s.db.Close()
}

func openStore() (*snapshotStore, error) {
	path := getDBPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	if err = markov.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	store, err := markov.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &snapshotStore{Store: store, db: db}, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

// addModelFlags registers the flags that select the model a command uses.
func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().String("corpus", "", "Corpus file or directory of .txt/.csv files")
	cmd.Flags().String("column", corpus.DefaultColumn, "CSV column holding the sentences")
	cmd.Flags().Bool("preprocess", false, "Clean the corpus before training")
	cmd.Flags().Bool("end-transitions", false, "Record sentence ends as transitions back to the start")
	cmd.Flags().String("snapshot", "", "Use a saved snapshot instead of a corpus")
}

// loadModel builds the model selected by the flags from addModelFlags.
func loadModel(cmd *cobra.Command) (*markov.Model, error) {
	path, _ := cmd.Flags().GetString("corpus")
	snapshot, _ := cmd.Flags().GetString("snapshot")

	switch {
	case path != "" && snapshot != "":
		return nil, errors.New("--corpus and --snapshot are mutually exclusive")
	case snapshot != "":
		s, err := openStore()
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		defer s.Close()
		return s.LoadModel(cmd.Context(), snapshot)
	case path != "":
		return buildFromCorpus(cmd, path)
	default:
		return nil, errors.New("one of --corpus or --snapshot is required")
	}
}

func buildFromCorpus(cmd *cobra.Command, path string) (*markov.Model, error) {
	column, _ := cmd.Flags().GetString("column")
	clean, _ := cmd.Flags().GetBool("preprocess")
	endTransitions, _ := cmd.Flags().GetBool("end-transitions")

	opts := []corpus.Option{corpus.WithColumn(column)}
	if clean {
		opts = append(opts, corpus.WithCleaner(preprocess.NewCleaner()))
	}
	sentences, err := corpus.NewLoader(opts...).Load(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	return markov.Build(sentences, markov.WithEndTransitions(endTransitions)), nil
}

func printJSON(w io.Writer, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}
