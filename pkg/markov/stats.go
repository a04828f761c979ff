package markov

// ModelStats holds aggregated statistics for a single Markov model.
type ModelStats struct {
	VocabSize      int  `json:"vocab_size"`      // The number of unique words.
	Predecessors   int  `json:"predecessors"`    // The number of tokens with at least one successor, Start included.
	TotalChains    int  `json:"total_chains"`    // The number of unique prefix->next_token links.
	TotalFrequency int  `json:"total_frequency"` // The sum of frequencies of all links; the total number of trained transitions.
	StartingTokens int  `json:"starting_tokens"` // The number of unique tokens that can start a chain.
	Sentences      int  `json:"sentences"`       // The number of non-empty sentences the model was built from.
	EndTransitions bool `json:"end_transitions"`
}

// Stats returns a snapshot of statistics for the model.
func (m *Model) Stats() ModelStats {
	stats := ModelStats{
		VocabSize:      len(m.ids),
		Predecessors:   len(m.chains),
		Sentences:      m.sentences,
		EndTransitions: m.endTransitions,
	}
	for prefixID, c := range m.chains {
		stats.TotalChains += len(c.tokens)
		stats.TotalFrequency += c.total
		if prefixID == SOCTokenID {
			stats.StartingTokens = len(c.tokens)
		}
	}
	return stats
}
