package markov

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenString(t *testing.T) {
	if got := Start.String(); got != SOCTokenText {
		t.Errorf("Start.String() = %q, want %q", got, SOCTokenText)
	}
	if got := Word("fish").String(); got != "fish" {
		t.Errorf("Word(fish).String() = %q, want %q", got, "fish")
	}
	if Word(SOCTokenText) == Start {
		t.Error("a word with the marker text must not equal Start")
	}
}

func TestVocabLookup(t *testing.T) {
	m := Build([]string{"one fish two fish", "red fish blue fish"})

	for _, word := range []string{"one", "fish", "two", "red", "blue"} {
		if !m.Contains(word) {
			t.Errorf("Contains(%q) = false, want true", word)
		}
	}
	for _, word := range []string{"", "green", SOCTokenText} {
		if m.Contains(word) {
			t.Errorf("Contains(%q) = true, want false", word)
		}
	}
}

func TestSuccessorsOrder(t *testing.T) {
	m := Build([]string{"a c", "a b", "a c"})

	transitions, ok := m.Successors(Word("a"))
	if !ok {
		t.Fatal("Successors(a) reported absent")
	}
	// "c" was interned before "b".
	want := []Transition{{Next: Word("c"), Freq: 2}, {Next: Word("b"), Freq: 1}}
	if !reflect.DeepEqual(transitions, want) {
		t.Errorf("Successors(a) = %+v, want %+v", transitions, want)
	}

	if _, ok = m.Successors(Word("b")); ok {
		t.Error("Successors(b) should be absent without end transitions")
	}
	if _, ok = m.Successors(Word("zebra")); ok {
		t.Error("Successors of an unseen word should be absent")
	}

	// Imported ids are compacted in their original order, whatever order the
	// links come in.
	imported, err := Import(strings.NewReader(`{"vocabulary": {"x": 40, "y": 7, "z": 12},
		"chains": [{"prefix_id": 0, "next_token_id": 40, "frequency": 1},
		           {"prefix_id": 0, "next_token_id": 12, "frequency": 3},
		           {"prefix_id": 0, "next_token_id": 7, "frequency": 2}]}`))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	transitions, _ = imported.Successors(Start)
	want = []Transition{{Next: Word("y"), Freq: 2}, {Next: Word("z"), Freq: 3}, {Next: Word("x"), Freq: 1}}
	if !reflect.DeepEqual(transitions, want) {
		t.Errorf("Successors(Start) of imported model = %+v, want %+v", transitions, want)
	}
}

func TestWhitespaceTokenizer(t *testing.T) {
	testCases := []struct {
		name     string
		sentence string
		want     []string
	}{
		{"simple", "you are kind", []string{"you", "are", "kind"}},
		{"runs of whitespace", "  you\tare \n kind  ", []string{"you", "are", "kind"}},
		{"punctuation is kept", "You're KIND!", []string{"You're", "KIND!"}},
		{"empty", "", []string{}},
		{"whitespace only", " \t\n ", []string{}},
	}

	tok := NewWhitespaceTokenizer()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tok.Tokens(tc.sentence)
			if len(got) != len(tc.want) {
				t.Fatalf("Tokens(%q) = %q, want %q", tc.sentence, got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Errorf("Tokens(%q)[%d] = %q, want %q", tc.sentence, i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestTokenizerFunc(t *testing.T) {
	var tok Tokenizer = TokenizerFunc(func(s string) []string {
		return strings.Split(s, ",")
	})
	if got := tok.Tokens("a,b"); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Tokens(a,b) = %q", got)
	}
}
