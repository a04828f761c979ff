package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/Flattery/pkg/compliment"
	"github.com/CTAG07/Flattery/pkg/markov"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags restores every flag of cmd and its children to its default, as
// RootCmd is shared between tests.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags(RootCmd)
	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&bytes.Buffer{})
	RootCmd.SetArgs(args)
	if err := RootCmd.Execute(); err != nil {
		t.Fatalf("flatter %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func writeCorpus(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write corpus: %v", err)
	}
	return path
}

func TestGenerateCommand(t *testing.T) {
	path := writeCorpus(t, "corpus.txt", "you are kind\n")
	save := filepath.Join(t.TempDir(), "saved.txt")

	out := execute(t, "generate", "--corpus", path, "-n", "2", "--save", save)
	if want := "- You are kind.\n- You are kind.\n"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
	data, err := os.ReadFile(save)
	if err != nil {
		t.Fatalf("save file not written: %v", err)
	}
	if string(data) != "- You are kind.\n- You are kind.\n" {
		t.Errorf("save file = %q", data)
	}

	out = execute(t, "generate", "--corpus", path, "--format", "json", "--template", "{{.Number}}) {{.Text}}")
	var cs []compliment.Compliment
	if err = json.Unmarshal([]byte(out), &cs); err != nil {
		t.Fatalf("invalid json output %q: %v", out, err)
	}
	if len(cs) != 1 || cs[0].Text != "You are kind." {
		t.Errorf("unexpected compliments: %+v", cs)
	}
}

func TestGenerateText(t *testing.T) {
	m := markov.Build([]string{"you shine"})
	_, text, err := generateText(m, 2, "{{.Number}}. {{.Text}}")
	if err != nil {
		t.Fatalf("generateText failed: %v", err)
	}
	if text != "1. You shine.\n2. You shine." {
		t.Errorf("text = %q", text)
	}

	if _, _, err = generateText(m, 0, ""); !errors.Is(err, compliment.ErrInvalidCount) {
		t.Errorf("expected ErrInvalidCount, got %v", err)
	}
	if _, _, err = generateText(m, 1, "{{"); err == nil {
		t.Error("expected a template error")
	}
}

func TestStatsCommand(t *testing.T) {
	path := writeCorpus(t, "corpus.csv", "Compliment\nyou are kind\nyou are wise\n")

	out := execute(t, "stats", "--corpus", path, "--format", "json")
	var stats markov.ModelStats
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("invalid json output %q: %v", out, err)
	}
	if stats.Sentences != 2 || stats.VocabSize != 4 || stats.EndTransitions {
		t.Errorf("unexpected stats: %+v", stats)
	}

	out = execute(t, "stats", "--corpus", path, "--end-transitions")
	if !strings.Contains(out, "end transitions:  true") {
		t.Errorf("text stats missing end transitions: %q", out)
	}
}

func TestCleanCommand(t *testing.T) {
	input := writeCorpus(t, "raw.csv", "Compliment\n\"1. You are KIND, truly!\"\n2. https://x.y you shine\n")
	output := filepath.Join(t.TempDir(), "clean.csv")

	execute(t, "clean", "--input", input, "--output", output, "--rare", "0")

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if want := "Compliment\nyou are kind truly\nyou shine\n"; string(data) != want {
		t.Errorf("cleaned csv = %q, want %q", data, want)
	}
}

func TestExportCommand(t *testing.T) {
	path := writeCorpus(t, "corpus.txt", "you are kind\nyou are wise\n")
	out := filepath.Join(t.TempDir(), "model.json")

	execute(t, "export", "--corpus", path, "--out", out)

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("export not written: %v", err)
	}
	defer f.Close()
	m, err := markov.Import(f)
	if err != nil {
		t.Fatalf("export does not import: %v", err)
	}
	if m.Sentences() != 2 || !m.Contains("wise") {
		t.Errorf("unexpected imported model: %+v", m.Stats())
	}
}

func TestSnapshotCommands(t *testing.T) {
	db := filepath.Join(t.TempDir(), "snapshots.db")
	path := writeCorpus(t, "corpus.txt", "you are kind\n")

	out := execute(t, "--db", db, "snapshot", "save", "kind", "--corpus", path)
	if !strings.Contains(out, "saved kind") {
		t.Errorf("unexpected save output %q", out)
	}

	out = execute(t, "--db", db, "snapshot", "list", "--format", "json")
	var infos []markov.ModelInfo
	if err := json.Unmarshal([]byte(out), &infos); err != nil {
		t.Fatalf("invalid json output %q: %v", out, err)
	}
	if len(infos) != 1 || infos[0].Name != "kind" {
		t.Fatalf("unexpected snapshots: %+v", infos)
	}

	out = execute(t, "--db", db, "generate", "--snapshot", "kind")
	if out != "- You are kind.\n" {
		t.Errorf("generate from snapshot = %q", out)
	}

	execute(t, "--db", db, "snapshot", "rm", "kind")
	out = execute(t, "--db", db, "snapshot", "list")
	if out != "" {
		t.Errorf("expected no snapshots, got %q", out)
	}
}

func TestGetDBPath(t *testing.T) {
	resetFlags(RootCmd)
	t.Setenv("FLATTERY_DB", "/tmp/from-env.db")
	if got := getDBPath(); got != "/tmp/from-env.db" {
		t.Errorf("expected env path, got %q", got)
	}
	dbPath = "/tmp/from-flag.db"
	defer func() { dbPath = "" }()
	if got := getDBPath(); got != "/tmp/from-flag.db" {
		t.Errorf("expected flag path, got %q", got)
	}
}
