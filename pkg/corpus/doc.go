// Package corpus reads training sentences from line-delimited text files,
// CSV columns and directories mixing both.
package corpus
