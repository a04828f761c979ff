package markov

const (
	// SOCTokenID is the reserved ID for the Start-Of-Chain token. Corpus words
	// are always interned at IDs above it.
	SOCTokenID = 0
	// SOCTokenText is how the Start-Of-Chain token is displayed. It is never
	// used as a lookup key, so a corpus word with the same text is just a word.
	SOCTokenText = "<SOC>"
)

// Token represents a single unit of the chain. It is either a word or the
// Start-Of-Chain marker, which doubles as the end-of-sentence marker when it
// is sampled as a successor.
type Token struct {
	Text string
	SOC  bool
}

// Start is the Start-Of-Chain token.
var Start = Token{SOC: true}

// Word returns a word token for the given text.
func Word(text string) Token {
	return Token{Text: text}
}

// String returns the token text, or SOCTokenText for the Start token.
func (t Token) String() string {
	if t.SOC {
		return SOCTokenText
	}
	return t.Text
}

// Transition is one observed successor of a token together with the number
// of times it was observed.
type Transition struct {
	Next Token
	Freq int
}

// ChainToken is a successor in its interned form.
type ChainToken struct {
	Id   int
	Freq int
}
