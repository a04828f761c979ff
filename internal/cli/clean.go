package cli

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"

	"github.com/CTAG07/Flattery/pkg/corpus"
	"github.com/CTAG07/Flattery/pkg/preprocess"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean a corpus file",
		Long:  "Normalize a corpus and write it as a single-column CSV that can be used for training.",
		Run:   runClean,
	}

	cmd.Flags().StringP("input", "i", "", "Corpus file to clean")
	cmd.Flags().StringP("output", "o", "", "Cleaned CSV to write")
	cmd.Flags().String("column", corpus.DefaultColumn, "CSV column to read and write")
	cmd.Flags().Int("rare", preprocess.DefaultRareWords, "Number of rarest words to remove")
	cmd.Flags().Int("frequent", 0, "Number of most frequent words to remove")
	cmd.Flags().Bool("stopwords", false, "Remove English stopwords")

	RootCmd.AddCommand(cmd)
}

// cleanedCSV renders lines as a CSV with a single column named column.
func cleanedCSV(column string, lines []string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{column}); err != nil {
		return nil, err
	}
	for _, line := range lines {
		if err := w.Write([]string{line}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func runClean(cmd *cobra.Command, args []string) {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	column, _ := cmd.Flags().GetString("column")
	rare, _ := cmd.Flags().GetInt("rare")
	frequent, _ := cmd.Flags().GetInt("frequent")
	stopwords, _ := cmd.Flags().GetBool("stopwords")

	if input == "" || output == "" {
		exitErr("clean", errors.New("--input and --output are required"))
	}

	cleaner := preprocess.NewCleaner(
		preprocess.WithRareWords(rare),
		preprocess.WithFrequentWords(frequent),
		preprocess.WithStopwords(stopwords),
	)
	lines, err := corpus.NewLoader(corpus.WithColumn(column), corpus.WithCleaner(cleaner)).LoadFile(input)
	if err != nil {
		exitErr("load corpus", err)
	}

	data, err := cleanedCSV(column, lines)
	if err != nil {
		exitErr("encode csv", err)
	}
	if err = atomic.WriteFile(output, bytes.NewReader(data)); err != nil {
		exitErr("write output", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d cleaned lines to %s\n", len(lines), output)
}
