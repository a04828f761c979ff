package preprocess

import (
	"slices"
	"testing"
)

func TestCleanLine(t *testing.T) {
	c := NewCleaner()
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "You Are AMAZING", "you are amazing"},
		{"leading number with dot", "12. You are kind", "you are kind"},
		{"leading number without dot", "3 you shine", "you shine"},
		{"inner numbers kept", "you are 100 percent right", "you are 100 percent right"},
		{"emoji", "you rock 😀🚀", "you rock"},
		{"url", "see https://example.com/x and www.example.org now", "see and now"},
		{"punctuation", "you're great, really!", "youre great really"},
		{"non-ascii kept", "très bien", "très bien"},
		{"whitespace collapsed", "  you \t are\n great  ", "you are great"},
		{"empty", "", ""},
		{"only noise", "42. !!! 😀", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.CleanLine(tc.in); got != tc.want {
				t.Errorf("CleanLine(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanLineStopwords(t *testing.T) {
	c := NewCleaner(WithStopwords(true))
	if got := c.CleanLine("You are the best of them all"); got != "best" {
		t.Errorf("got %q, want %q", got, "best")
	}

	custom := NewCleaner(WithStopwords(true), WithStopwordList([]string{"best"}))
	if got := custom.CleanLine("you are the best"); got != "you are the" {
		t.Errorf("custom list: got %q, want %q", got, "you are the")
	}
}

func TestCleanRemovesRareWords(t *testing.T) {
	lines := []string{
		"you are kind",
		"you are bright",
		"you are kind",
		"you glow",
	}
	// Counts: you 4, are 3, kind 2, bright 1, glow 1.
	c := NewCleaner(WithRareWords(2))
	got := c.Clean(lines)
	want := []string{"you are kind", "you are", "you are kind", "you"}
	if !slices.Equal(got, want) {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanRareTiesDropLastSeen(t *testing.T) {
	// All words appear once; the last seen ones are the rarest.
	c := NewCleaner(WithRareWords(1))
	got := c.Clean([]string{"alpha beta", "gamma"})
	want := []string{"alpha beta"}
	if !slices.Equal(got, want) {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanRemovesFrequentWords(t *testing.T) {
	c := NewCleaner(WithRareWords(0), WithFrequentWords(1))
	got := c.Clean([]string{"you are kind", "you are wise"})
	want := []string{"are kind", "are wise"}
	if !slices.Equal(got, want) {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanSmallCorpus(t *testing.T) {
	// Fewer distinct words than the default rare count removes everything.
	c := NewCleaner()
	if got := c.Clean([]string{"1. You are kind!", "you are kind"}); len(got) != 0 {
		t.Errorf("expected every word to be dropped, got %q", got)
	}
}

func TestCleanDropsBlankLines(t *testing.T) {
	c := NewCleaner(WithRareWords(0))
	got := c.Clean([]string{"", "   ", "1.", "hello there", "😀"})
	want := []string{"hello there"}
	if !slices.Equal(got, want) {
		t.Errorf("Clean() = %q, want %q", got, want)
	}
}

func TestCleanEmpty(t *testing.T) {
	c := NewCleaner()
	if got := c.Clean(nil); len(got) != 0 {
		t.Errorf("Clean(nil) = %q, want empty", got)
	}
}
