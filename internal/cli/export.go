package cli

import (
	"bytes"
	"fmt"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a model as JSON",
		Long:  "Export the model trained from --corpus (or loaded from --snapshot) as JSON. With --out the file is replaced atomically.",
		Run:   runExport,
	}

	addModelFlags(cmd)
	cmd.Flags().StringP("out", "o", "", "Output file (default: stdout)")

	RootCmd.AddCommand(cmd)
}

func runExport(cmd *cobra.Command, args []string) {
	out, _ := cmd.Flags().GetString("out")

	m, err := loadModel(cmd)
	if err != nil {
		exitErr("load model", err)
	}

	var buf bytes.Buffer
	if err = m.Export(&buf); err != nil {
		exitErr("export", err)
	}
	if out == "" {
		_, _ = buf.WriteTo(cmd.OutOrStdout())
		return
	}
	if err = atomic.WriteFile(out, &buf); err != nil {
		exitErr("write export", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "exported %d sentences to %s\n", m.Sentences(), out)
}
