package markov

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestExportImportRoundTrip(t *testing.T) {
	m := Build([]string{"one fish two fish", "red fish blue fish"}, WithEndTransitions(true))

	var buf bytes.Buffer
	if err := m.Export(&buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	imported, err := Import(&buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if !reflect.DeepEqual(m.Snapshot(), imported.Snapshot()) {
		t.Errorf("imported snapshot differs:\n got %+v\nwant %+v", imported.Snapshot(), m.Snapshot())
	}
	if !imported.EndTransitions() || imported.Sentences() != 2 {
		t.Errorf("metadata lost in round trip: end=%v sentences=%d", imported.EndTransitions(), imported.Sentences())
	}

	out, err := imported.Generate(WithTemperature(0))
	if err != nil {
		t.Fatalf("Generate from imported model failed: %v", err)
	}
	if !strings.HasSuffix(out, "fish") {
		t.Errorf("Generate() from imported model got = %q", out)
	}
}

func TestImportRemapsSparseIDs(t *testing.T) {
	pruned := Build([]string{"a b c", "a b d e"}).PruneVocabulary(2)

	var buf bytes.Buffer
	if err := pruned.Export(&buf); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	imported, err := Import(&buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if imported.Stats() != pruned.Stats() {
		t.Errorf("stats differ after import: %+v vs %+v", imported.Stats(), pruned.Stats())
	}
	if got := successorMap(imported, Word("a")); !reflect.DeepEqual(got, map[string]int{"b": 2}) {
		t.Errorf("Successors(a) = %v", got)
	}
}

func TestImportErrors(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		errorContains string
	}{
		{
			name:          "Invalid JSON",
			input:         `{"vocabulary": `,
			errorContains: "failed to decode",
		},
		{
			name:          "Reserved ID",
			input:         `{"vocabulary": {"a": 0}, "chains": []}`,
			errorContains: "reserved id",
		},
		{
			name:          "Unknown token",
			input:         `{"vocabulary": {"a": 1}, "chains": [{"prefix_id": 1, "next_token_id": 7, "frequency": 1}]}`,
			errorContains: "token id 7 not found",
		},
		{
			name:          "Unknown prefix",
			input:         `{"vocabulary": {"a": 1}, "chains": [{"prefix_id": 9, "next_token_id": 1, "frequency": 1}]}`,
			errorContains: "prefix id 9 not found",
		},
		{
			name:          "Non-positive frequency",
			input:         `{"vocabulary": {"a": 1}, "chains": [{"prefix_id": 0, "next_token_id": 1, "frequency": 0}]}`,
			errorContains: "frequency 0",
		},
		{
			name:          "Duplicate ID",
			input:         `{"vocabulary": {"a": 1, "b": 1}, "chains": []}`,
			errorContains: "share id 1",
		},
		{
			name:          "Link frequency overflow",
			input:         `{"vocabulary": {"a": 1}, "chains": [{"prefix_id": 0, "next_token_id": 1, "frequency": 9223372036854775807}, {"prefix_id": 0, "next_token_id": 1, "frequency": 1}]}`,
			errorContains: "(0 -> 1) frequency overflows",
		},
		{
			name:          "Prefix total overflow",
			input:         `{"vocabulary": {"a": 1, "b": 2}, "chains": [{"prefix_id": 0, "next_token_id": 1, "frequency": 9223372036854775807}, {"prefix_id": 0, "next_token_id": 2, "frequency": 9223372036854775807}]}`,
			errorContains: "prefix 0 overflows",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Import(strings.NewReader(tc.input))
			if err == nil {
				t.Fatal("expected an error but got none")
			}
			if !strings.Contains(err.Error(), tc.errorContains) {
				t.Errorf("expected error to contain %q, but got %q", tc.errorContains, err.Error())
			}
		})
	}
}

func TestImportLargeFrequencies(t *testing.T) {
	// Frequencies that fit together are accepted and sampling still works.
	input := `{"vocabulary": {"a": 1, "b": 2}, "chains": [{"prefix_id": 0, "next_token_id": 1, "frequency": 4611686018427387903}, {"prefix_id": 0, "next_token_id": 2, "frequency": 4611686018427387904}]}`
	m, err := Import(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	next, ok := m.SampleNext(Start)
	if !ok || (next != Word("a") && next != Word("b")) {
		t.Errorf("SampleNext(Start) = %v, %v", next, ok)
	}
}
