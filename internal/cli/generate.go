package cli

import (
	"fmt"
	"math/rand/v2"

	"github.com/CTAG07/Flattery/pkg/compliment"
	"github.com/CTAG07/Flattery/pkg/markov"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate compliments",
		Long:  "Train on a corpus (or load a snapshot) and print numbered compliments. --save appends the output to a file.",
		Run:   runGenerate,
	}

	addModelFlags(cmd)
	cmd.Flags().IntP("count", "n", 1, "Number of compliments")
	cmd.Flags().Int("max-length", markov.DefaultMaxLength, "Words after which generation looks for a natural end")
	cmd.Flags().Int("extend", markov.DefaultExtendAttempts, "Extra words allowed while looking for a natural end")
	cmd.Flags().Float64("temperature", 1.0, "Sampling temperature; 0 always picks the most frequent word")
	cmd.Flags().Int("top-k", 0, "Sample only from the k most frequent successors (0 = all)")
	cmd.Flags().Uint64("seed", 0, "Random seed (0 = random)")
	cmd.Flags().String("template", compliment.DefaultLineTemplate, "Line template")
	cmd.Flags().String("save", "", "Append the output to this file")

	RootCmd.AddCommand(cmd)
}

func generateOptions(cmd *cobra.Command) []markov.GenerateOption {
	maxLength, _ := cmd.Flags().GetInt("max-length")
	extend, _ := cmd.Flags().GetInt("extend")
	temperature, _ := cmd.Flags().GetFloat64("temperature")
	topK, _ := cmd.Flags().GetInt("top-k")
	seed, _ := cmd.Flags().GetUint64("seed")

	opts := []markov.GenerateOption{
		markov.WithMaxLength(maxLength),
		markov.WithExtendAttempts(extend),
		markov.WithTemperature(temperature),
		markov.WithTopK(topK),
	}
	if seed != 0 {
		opts = append(opts, markov.WithRand(rand.New(rand.NewPCG(seed, seed))))
	}
	return opts
}

// generateText produces count compliments from m rendered with lineTemplate.
func generateText(m *markov.Model, count int, lineTemplate string, opts ...markov.GenerateOption) ([]compliment.Compliment, string, error) {
	f, err := compliment.NewFormatter(lineTemplate)
	if err != nil {
		return nil, "", err
	}
	svc := compliment.NewService(m, compliment.WithMaxCount(max(count, 1)))
	cs, err := svc.Generate(count, opts...)
	if err != nil {
		return nil, "", err
	}
	text, err := f.String(cs)
	if err != nil {
		return nil, "", err
	}
	return cs, text, nil
}

func runGenerate(cmd *cobra.Command, args []string) {
	count, _ := cmd.Flags().GetInt("count")
	lineTemplate, _ := cmd.Flags().GetString("template")
	savePath, _ := cmd.Flags().GetString("save")

	m, err := loadModel(cmd)
	if err != nil {
		exitErr("load model", err)
	}

	cs, text, err := generateText(m, count, lineTemplate, generateOptions(cmd)...)
	if err != nil {
		exitErr("generate", err)
	}

	if formatFlag == "json" {
		printJSON(cmd.OutOrStdout(), cs)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), text)
	}

	if savePath != "" {
		if err = compliment.AppendFile(savePath, text); err != nil {
			exitErr("save", err)
		}
	}
}
