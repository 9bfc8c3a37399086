package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/codevision/internal/output"
	"github.com/rohankatakam/codevision/internal/store"
)

var storeFormat string

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Inspect and maintain the analysis store",
}

var storeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored analyses",
	Args:  cobra.NoArgs,
	RunE:  runStoreList,
}

var storePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired analyses",
	Args:  cobra.NoArgs,
	RunE:  runStorePurge,
}

var storeForgetCmd = &cobra.Command{
	Use:   "forget <project>",
	Short: "Delete one project's analysis",
	Args:  cobra.ExactArgs(1),
	RunE:  runStoreForget,
}

func init() {
	storeListCmd.Flags().StringVarP(&storeFormat, "format", "f", "text", "output format: text, json or yaml")

	storeCmd.AddCommand(storeListCmd)
	storeCmd.AddCommand(storePurgeCmd)
	storeCmd.AddCommand(storeForgetCmd)
}

func runStoreList(cmd *cobra.Command, args []string) error {
	svc, closeStore, err := openService()
	if err != nil {
		return err
	}
	defer closeStore()

	summaries, err := svc.Projects(cmd.Context())
	if err != nil {
		return err
	}

	if storeFormat != "text" {
		return output.WriteData(os.Stdout, summaries, storeFormat)
	}
	if len(summaries) == 0 {
		fmt.Println("No stored analyses")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PROJECT\tMODULES\tCLASSES\tCREATED\tROOT")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", s.ProjectID, s.Modules, s.Classes, s.CreatedAt.Local().Format(time.RFC3339), s.Root)
	}
	return w.Flush()
}

func runStorePurge(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	purger, ok := st.(store.Purger)
	if !ok {
		fmt.Printf("The %s store expires entries automatically\n", cfg.Store.Type)
		return nil
	}
	removed, err := purger.Purge(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d expired analyses\n", removed)
	return nil
}

func runStoreForget(cmd *cobra.Command, args []string) error {
	svc, closeStore, err := openService()
	if err != nil {
		return err
	}
	defer closeStore()

	return svc.Forget(cmd.Context(), args[0])
}
