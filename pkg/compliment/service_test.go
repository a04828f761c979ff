package compliment

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/CTAG07/Flattery/pkg/markov"
)

func TestServiceGenerate(t *testing.T) {
	svc := NewService(markov.Build([]string{"you are kind"}), WithMaxCount(5))

	cs, err := svc.Generate(3)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(cs) != 3 {
		t.Fatalf("expected 3 compliments, got %d", len(cs))
	}
	for i, c := range cs {
		if c.Number != i+1 || c.Text != "You are kind." || c.Raw != "you are kind" {
			t.Errorf("unexpected compliment %d: %+v", i, c)
		}
	}
}

func TestServiceGenerateErrors(t *testing.T) {
	empty := NewService(nil)
	if _, err := empty.Generate(1); !errors.Is(err, ErrNoModel) {
		t.Errorf("expected ErrNoModel, got %v", err)
	}

	svc := NewService(markov.Build([]string{"hi"}), WithMaxCount(2))
	for _, count := range []int{0, -1, 3} {
		if _, err := svc.Generate(count); !errors.Is(err, ErrInvalidCount) {
			t.Errorf("Generate(%d): expected ErrInvalidCount, got %v", count, err)
		}
	}
	if _, err := svc.Generate(1, markov.WithMaxLength(0)); !errors.Is(err, markov.ErrInvalidMaxLength) {
		t.Errorf("expected ErrInvalidMaxLength, got %v", err)
	}
}

func TestServiceEmptyModelGivesEmptyCompliments(t *testing.T) {
	svc := NewService(markov.Build(nil))
	cs, err := svc.Generate(2)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	for _, c := range cs {
		if c.Text != "" {
			t.Errorf("expected empty text, got %q", c.Text)
		}
	}
}

func TestServiceReload(t *testing.T) {
	svc := NewService(markov.Build([]string{"old words"}))
	old := svc.Model()

	m, err := svc.Reload(context.Background(), Sentences([]string{"new words"}))
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if svc.Model() != m || m == old {
		t.Fatal("expected the reloaded model to be current")
	}
	if !m.Contains("new") || m.Contains("old") {
		t.Error("reloaded model has the wrong vocabulary")
	}
}

func TestServiceReloadFailureKeepsModel(t *testing.T) {
	svc := NewService(markov.Build([]string{"keep me"}))
	old := svc.Model()

	failing := func(context.Context) ([]string, error) {
		return nil, errors.New("disk on fire")
	}
	if _, err := svc.Reload(context.Background(), failing); err == nil {
		t.Fatal("expected Reload to fail")
	}
	if svc.Model() != old {
		t.Error("a failed reload replaced the model")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Reload(ctx, Sentences([]string{"too late"})); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if svc.Model() != old {
		t.Error("a cancelled reload replaced the model")
	}
}

func TestServiceReloadBuildOptions(t *testing.T) {
	svc := NewService(nil, WithBuildOptions(markov.WithEndTransitions(true)))
	m, err := svc.Reload(context.Background(), Sentences([]string{"a b"}))
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if !m.EndTransitions() {
		t.Error("expected build options to be applied")
	}
}

func TestServiceSwap(t *testing.T) {
	first := markov.Build([]string{"one"})
	second := markov.Build([]string{"two"})
	svc := NewService(first)

	if prev := svc.Swap(second); prev != first {
		t.Error("Swap did not return the previous model")
	}
	if svc.Model() != second {
		t.Error("Swap did not install the new model")
	}
}

// Generation never observes a model that is not one of the installed ones.
func TestServiceConcurrentReload(t *testing.T) {
	a := []string{"alpha beta"}
	b := []string{"gamma delta"}
	svc := NewService(markov.Build(a))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 50 {
			src := a
			if i%2 == 0 {
				src = b
			}
			if _, err := svc.Reload(context.Background(), Sentences(src)); err != nil {
				t.Errorf("Reload failed: %v", err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		rng := rand.New(rand.NewPCG(1, 2))
		for range 200 {
			cs, err := svc.Generate(1, markov.WithRand(rng))
			if err != nil {
				t.Errorf("Generate failed: %v", err)
				return
			}
			if raw := cs[0].Raw; raw != "alpha beta" && raw != "gamma delta" {
				t.Errorf("unexpected sentence %q", raw)
				return
			}
		}
	}()
	wg.Wait()
}

func TestServiceReplace(t *testing.T) {
	first := markov.Build([]string{"a b", "a b", "a c"})
	svc := NewService(first)

	pruned, err := svc.Replace(func(cur *markov.Model) (*markov.Model, error) {
		if cur != first {
			t.Error("Replace did not pass the current model")
		}
		return cur.Prune(1), nil
	})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if svc.Model() != pruned {
		t.Error("Replace did not install the pruned model")
	}
	if got := mustSuccessors(t, pruned, "a"); len(got) != 1 || got[0].Next != markov.Word("b") {
		t.Errorf("Successors(a) after prune = %+v", got)
	}

	wantErr := errors.New("boom")
	if _, err = svc.Replace(func(*markov.Model) (*markov.Model, error) { return nil, wantErr }); !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}
	if _, err = svc.Replace(func(*markov.Model) (*markov.Model, error) { return nil, nil }); !errors.Is(err, ErrNoModel) {
		t.Errorf("expected ErrNoModel for a nil result, got %v", err)
	}
	if svc.Model() != pruned {
		t.Error("a failed Replace changed the current model")
	}
}

// A replacement that starts while a reload is running sees the reloaded model.
func TestServiceReplaceWaitsForReload(t *testing.T) {
	svc := NewService(markov.Build([]string{"old words"}))

	started := make(chan struct{})
	release := make(chan struct{})
	reloaded := make(chan error, 1)
	go func() {
		_, err := svc.Reload(context.Background(), func(context.Context) ([]string, error) {
			close(started)
			<-release
			return []string{"new words"}, nil
		})
		reloaded <- err
	}()
	<-started

	replaced := make(chan error, 1)
	var seen *markov.Model
	go func() {
		_, err := svc.Replace(func(cur *markov.Model) (*markov.Model, error) {
			seen = cur
			return cur.Prune(0), nil
		})
		replaced <- err
	}()

	close(release)
	if err := <-reloaded; err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if err := <-replaced; err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if seen == nil || !seen.Contains("new") {
		t.Error("Replace ran against the model from before the reload")
	}
	if !svc.Model().Contains("new") {
		t.Error("the reloaded model was lost")
	}
}

func mustSuccessors(t *testing.T, m *markov.Model, word string) []markov.Transition {
	t.Helper()
	transitions, ok := m.Successors(markov.Word(word))
	if !ok {
		t.Fatalf("Successors(%q) absent", word)
	}
	return transitions
}
