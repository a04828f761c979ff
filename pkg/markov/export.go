package markov

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
)

// ExportedModel is the serializable representation of a trained model,
// used for JSON-based import and export and for database snapshots.
type ExportedModel struct {
	Sentences      int             `json:"sentences"`
	EndTransitions bool            `json:"end_transitions"`
	Vocabulary     map[string]int  `json:"vocabulary"` // token_text -> token_id, Start is implicit at 0
	Chains         []ExportedChain `json:"chains"`
}

// ExportedChain is the serializable representation of a single link
// in a Markov chain, used within an ExportedModel.
type ExportedChain struct {
	PrefixID    int `json:"prefix_id"`
	NextTokenID int `json:"next_token_id"`
	Frequency   int `json:"frequency"`
}

// Snapshot returns the serializable form of the model. Chains are ordered by
// prefix and then by next token, so equal models produce equal snapshots.
func (m *Model) Snapshot() ExportedModel {
	exported := ExportedModel{
		Sentences:      m.sentences,
		EndTransitions: m.endTransitions,
		Vocabulary:     make(map[string]int, len(m.ids)),
		Chains:         make([]ExportedChain, 0),
	}
	for text, id := range m.ids {
		exported.Vocabulary[text] = id
	}

	prefixIDs := make([]int, 0, len(m.chains))
	for prefixID := range m.chains {
		prefixIDs = append(prefixIDs, prefixID)
	}
	sort.Ints(prefixIDs)
	for _, prefixID := range prefixIDs {
		for _, token := range m.chains[prefixID].tokens {
			exported.Chains = append(exported.Chains, ExportedChain{
				PrefixID:    prefixID,
				NextTokenID: token.Id,
				Frequency:   token.Freq,
			})
		}
	}
	return exported
}

// Export serializes the model into JSON and writes it to w.
func (m *Model) Export(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(m.Snapshot())
}

// FromSnapshot rebuilds a model from its serializable form. Token IDs are
// re-mapped onto a compact range in their original order, and links that
// appear more than once are merged by adding their frequencies.
func FromSnapshot(exported ExportedModel) (*Model, error) {
	oldIDs := make([]int, 0, len(exported.Vocabulary))
	textByID := make(map[int]string, len(exported.Vocabulary))
	for text, id := range exported.Vocabulary {
		if text == "" {
			return nil, fmt.Errorf("consistency error: empty token text for id %d", id)
		}
		if id == SOCTokenID {
			return nil, fmt.Errorf("consistency error: token '%s' uses the reserved id %d", text, SOCTokenID)
		}
		if other, dup := textByID[id]; dup {
			return nil, fmt.Errorf("consistency error: tokens '%s' and '%s' share id %d", other, text, id)
		}
		textByID[id] = text
		oldIDs = append(oldIDs, id)
	}
	sort.Ints(oldIDs)

	vocab := make([]string, 1, len(oldIDs)+1)
	vocab[0] = SOCTokenText
	vocabIDMap := make(map[int]int, len(oldIDs)+1) // old_id -> new_id
	vocabIDMap[SOCTokenID] = SOCTokenID
	for _, oldID := range oldIDs {
		vocabIDMap[oldID] = len(vocab)
		vocab = append(vocab, textByID[oldID])
	}

	links := make(map[int]map[int]int)
	totals := make(map[int]int)
	for _, link := range exported.Chains {
		if link.Frequency <= 0 {
			return nil, fmt.Errorf("consistency error: link (%d -> %d) has frequency %d", link.PrefixID, link.NextTokenID, link.Frequency)
		}
		prefixID, ok := vocabIDMap[link.PrefixID]
		if !ok {
			return nil, fmt.Errorf("consistency error: prefix id %d not found in vocabulary", link.PrefixID)
		}
		nextID, ok := vocabIDMap[link.NextTokenID]
		if !ok {
			return nil, fmt.Errorf("consistency error: token id %d not found in vocabulary", link.NextTokenID)
		}
		next, ok := links[prefixID]
		if !ok {
			next = make(map[int]int)
			links[prefixID] = next
		}
		if next[nextID] > math.MaxInt-link.Frequency {
			return nil, fmt.Errorf("consistency error: link (%d -> %d) frequency overflows", link.PrefixID, link.NextTokenID)
		}
		if totals[prefixID] > math.MaxInt-link.Frequency {
			return nil, fmt.Errorf("consistency error: total frequency of prefix %d overflows", link.PrefixID)
		}
		next[nextID] += link.Frequency
		totals[prefixID] += link.Frequency
	}

	return newModel(vocab, links, exported.Sentences, exported.EndTransitions), nil
}

// Import reads a JSON representation of a model from r.
func Import(r io.Reader) (*Model, error) {
	var imported ExportedModel
	if err := json.NewDecoder(r).Decode(&imported); err != nil {
		return nil, fmt.Errorf("failed to decode json model: %w", err)
	}
	return FromSnapshot(imported)
}
