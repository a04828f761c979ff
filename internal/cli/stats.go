package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show model statistics",
		Run:   runStats,
	}

	addModelFlags(cmd)
	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	m, err := loadModel(cmd)
	if err != nil {
		exitErr("load model", err)
	}
	stats := m.Stats()

	if formatFlag == "json" {
		printJSON(cmd.OutOrStdout(), stats)
		return
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "sentences:        %d\n", stats.Sentences)
	fmt.Fprintf(w, "vocabulary:       %d\n", stats.VocabSize)
	fmt.Fprintf(w, "predecessors:     %d\n", stats.Predecessors)
	fmt.Fprintf(w, "transitions:      %d\n", stats.TotalChains)
	fmt.Fprintf(w, "total frequency:  %d\n", stats.TotalFrequency)
	fmt.Fprintf(w, "starting words:   %d\n", stats.StartingTokens)
	fmt.Fprintf(w, "end transitions:  %t\n", stats.EndTransitions)
}
