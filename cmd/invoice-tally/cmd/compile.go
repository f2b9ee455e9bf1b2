package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-tally/internal/model"
)

var compileOutput string

var compileCmd = &cobra.Command{
	Use:   "compile <record.json|->",
	Short: "Compile an invoice record into Tally import XML",
	Long: `Compile an extracted invoice record (JSON) into a Tally voucher import
document. No extraction provider is needed.

Findings such as missing fields or an unbalanced voucher are printed to
stderr; the XML is still produced.

Examples:
  invoice-tally compile invoice.json
  invoice-tally compile invoice.json -o voucher.xml --company "Acme Pvt Ltd"
  cat invoice.json | invoice-tally compile - --mode minimal`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "Output file (default: stdout)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	data, err := readInput(args[0])
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	rec, err := model.ParseInvoiceRecord(data)
	if err != nil {
		return err
	}

	res, err := newCompiler().Compile(rec)
	if err != nil {
		return err
	}

	for _, f := range res.Findings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", f.Error())
	}

	if compileOutput == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), res.XML)
		return err
	}

	if err := os.WriteFile(compileOutput, []byte(res.XML), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	printVerbose("Wrote %s voucher %s to %s\n", res.Voucher.VoucherType, res.Voucher.Number, compileOutput)
	return nil
}
