/*
Package markov provides a small, in-memory, first-order Markov chain over words
for generating short sentences from a corpus of examples.

A Model is built once from a snapshot of the corpus and is immutable afterwards,
so it can be shared freely between goroutines. Rebuilding means building a new
Model and publishing it in place of the old one. Generation walks the model from
the Start token, sampling each next word in proportion to how often it was
observed, and stops on a natural end or after a bounded extension past the
requested length.

Models can be pruned, exported to JSON, and saved to or loaded from a SQLite
database through Store.
*/
package markov
