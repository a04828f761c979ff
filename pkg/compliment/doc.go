/*
Package compliment turns generated word sequences into presentable compliments.

Decorate capitalizes a sentence and terminates it with a period. A Formatter
renders numbered compliments through a text/template line template, and
AppendFile saves rendered output to an append-only file.

Service owns the current markov.Model. Generation reads the model through an
atomic pointer, so a Reload or Swap never blocks readers and never leaves them
with a partly built model; a failed reload keeps the previous model.
*/
package compliment
