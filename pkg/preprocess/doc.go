/*
Package preprocess cleans raw compliment text before it is used to build a
model. Cleaning happens in two passes: every line is normalized on its own
(lowercasing, leading list numbers, emoji, URLs and punctuation), and then the
corpus as a whole is used to filter out its rarest and, optionally, most
frequent words.
*/
package preprocess
