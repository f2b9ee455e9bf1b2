package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	money "github.com/rezonia/invoice-tally/internal/decimal"
	"github.com/rezonia/invoice-tally/internal/parser/tallyxml"
)

var verifyTolerance string

var verifyCmd = &cobra.Command{
	Use:   "verify [files...]",
	Short: "Verify Tally import XML files",
	Long: `Read Tally voucher import XML and check every voucher before it is
loaded into Tally.

Verifies:
  - Document structure (ENVELOPE, HEADER, BODY, TALLYMESSAGE)
  - Entry amounts are decimal numbers
  - Each voucher sums to zero within the tolerance
  - Deemed-positive flags agree with amount signs

The command fails when any voucher is unbalanced or has a polarity issue.

Examples:
  invoice-tally verify voucher.xml
  invoice-tally verify out/ -f json
  invoice-tally verify voucher.xml --tolerance 0.5`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyTolerance, "tolerance", tallyxml.DefaultTolerance.String(), "Accepted imbalance per voucher")
}

// VerifyResult is the verification outcome for one file
type VerifyResult struct {
	File   string           `json:"file"`
	Report *tallyxml.Report `json:"report,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func runVerify(cmd *cobra.Command, args []string) error {
	tol, err := decimal.NewFromString(verifyTolerance)
	if err != nil || tol.IsNegative() {
		return fmt.Errorf("--tolerance must be a non-negative decimal, got %q", verifyTolerance)
	}

	files, err := collectFiles(args, isXMLFile)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to verify")
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]*VerifyResult, 0, len(files))
	allOK := true
	for _, file := range files {
		result := verifyFile(ctx, file, tol)
		if result.Error != "" || !result.Report.AllValid {
			allOK = false
		}
		results = append(results, result)
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		if err := outputJSON(out, results); err != nil {
			return err
		}
	} else if err := printVerifyResults(out, results); err != nil {
		return err
	}

	if !allOK {
		return fmt.Errorf("verification failed for some files")
	}
	return nil
}

func verifyFile(ctx context.Context, file string, tol decimal.Decimal) *VerifyResult {
	result := &VerifyResult{File: file}

	data, err := readInput(file)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	env, err := tallyxml.ParseBytes(ctx, data)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Report = tallyxml.Verify(env, tol)
	return result
}

func printVerifyResults(w io.Writer, results []*VerifyResult) error {
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(w, "✗ %s: %s\n\n", r.File, r.Error)
			continue
		}

		status := "✓"
		if !r.Report.AllValid {
			status = "✗"
		}
		fmt.Fprintf(w, "%s %s", status, r.File)
		if r.Report.Company != "" {
			fmt.Fprintf(w, " (company: %s)", r.Report.Company)
		}
		fmt.Fprintln(w)

		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  NUMBER\tTYPE\tPARTY\tENTRIES\tBALANCE\tSTATUS")
		for _, v := range r.Report.Vouchers {
			state := "ok"
			if !v.Balanced {
				state = "UNBALANCED"
			} else if !v.Valid {
				state = "POLARITY"
			}
			if len(v.Issues) > 0 {
				state += ": " + strings.Join(v.Issues, "; ")
			}
			fmt.Fprintf(tw, "  %s\t%s\t%s\t%d\t%s\t%s\n",
				v.Number, v.VoucherType, v.Party, v.Entries, money.Format(v.Balance), state)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}
