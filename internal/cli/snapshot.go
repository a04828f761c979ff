package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage saved models",
	}

	save := &cobra.Command{
		Use:   "save NAME",
		Short: "Train on a corpus and save the model under NAME",
		Args:  cobra.ExactArgs(1),
		Run:   runSnapshotSave,
	}
	addModelFlags(save)

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved models",
		Run:   runSnapshotList,
	}

	rm := &cobra.Command{
		Use:   "rm NAME",
		Short: "Remove a saved model",
		Args:  cobra.ExactArgs(1),
		Run:   runSnapshotRm,
	}

	cmd.AddCommand(save, list, rm)
	RootCmd.AddCommand(cmd)
}

func runSnapshotSave(cmd *cobra.Command, args []string) {
	m, err := loadModel(cmd)
	if err != nil {
		exitErr("load model", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	info, err := s.SaveModel(cmd.Context(), args[0], m)
	if err != nil {
		exitErr("save snapshot", err)
	}
	if formatFlag == "json" {
		printJSON(cmd.OutOrStdout(), info)
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d sentences)\n", info.Name, info.Sentences)
}

func runSnapshotList(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	infos, err := s.ModelInfos(cmd.Context())
	if err != nil {
		exitErr("list snapshots", err)
	}
	if formatFlag == "json" {
		printJSON(cmd.OutOrStdout(), infos)
		return
	}
	for _, info := range infos {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d sentences\t%s\n", info.Name, info.Sentences, info.SavedAt.Local().Format(time.DateTime))
	}
}

func runSnapshotRm(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	if err = s.RemoveModel(cmd.Context(), args[0]); err != nil {
		exitErr("remove snapshot", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
}
