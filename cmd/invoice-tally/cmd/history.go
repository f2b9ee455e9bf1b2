package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	historyJSON  bool
	historyForce bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect invoices recorded with --save or by the server",
	Long: `List, show and delete entries in the history database.

Examples:
  invoice-tally history list
  invoice-tally history show <id> > voucher.xml
  invoice-tally history show <id> --json
  invoice-tally history clear --force`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded invoices, newest first",
	Args:  cobra.NoArgs,
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the voucher XML of an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every entry",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd, historyClearCmd)

	historyShowCmd.Flags().BoolVar(&historyJSON, "json", false, "Print the invoice record instead of the XML")
	historyClearCmd.Flags().BoolVar(&historyForce, "force", false, "Confirm deleting every entry")
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		return outputJSON(out, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No entries.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tFILE\tTYPE\tNUMBER\tPARTY\tTOTAL\tFINDINGS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			e.ID,
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			e.FileName,
			e.VoucherType,
			e.VoucherNumber,
			e.PartyName,
			e.Total,
			len(e.Findings),
		)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("entry %s: %w", args[0], err)
	}

	if historyJSON {
		return outputJSON(cmd.OutOrStdout(), entry.Record)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), entry.XML)
	return err
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(args[0]); err != nil {
		return fmt.Errorf("entry %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	if !historyForce {
		return fmt.Errorf("refusing to clear history without --force")
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Clear()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", n)
	return nil
}
