package markov

// Prune returns a new model without the links whose frequency is less than or
// equal to minFreq. This is useful for removing rare, and often noisy,
// transitions. The receiver is left untouched.
func (m *Model) Prune(minFreq int) *Model {
	links := m.links()
	for prefixID, next := range links {
		for tokenID, freq := range next {
			if freq <= minFreq {
				delete(next, tokenID)
			}
		}
		if len(next) == 0 {
			delete(links, prefixID)
		}
	}
	return newModel(m.vocab, links, m.sentences, m.endTransitions)
}

// PruneVocabulary returns a new model without the words that were observed
// fewer than minFrequency times as a successor. Every link that starts from or
// points to a removed word is dropped with it. Start is never pruned.
func (m *Model) PruneVocabulary(minFrequency int) *Model {
	incoming := make(map[int]int)
	for _, c := range m.chains {
		for _, token := range c.tokens {
			incoming[token.Id] += token.Freq
		}
	}

	rare := make(map[int]struct{})
	for _, id := range m.ids {
		if incoming[id] < minFrequency {
			rare[id] = struct{}{}
		}
	}
	if len(rare) == 0 {
		return m
	}

	links := m.links()
	for prefixID, next := range links {
		if _, isRare := rare[prefixID]; isRare {
			delete(links, prefixID)
			continue
		}
		for tokenID := range next {
			if _, isRare := rare[tokenID]; isRare {
				delete(next, tokenID)
			}
		}
		if len(next) == 0 {
			delete(links, prefixID)
		}
	}

	// Removed words keep their slot so IDs stay stable; an empty slot is never
	// a word.
	vocab := make([]string, len(m.vocab))
	copy(vocab, m.vocab)
	for id := range rare {
		vocab[id] = ""
	}
	return newModel(vocab, links, m.sentences, m.endTransitions)
}
