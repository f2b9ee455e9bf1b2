package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	money "github.com/rezonia/invoice-tally/internal/decimal"
	"github.com/rezonia/invoice-tally/internal/model"
	"github.com/rezonia/invoice-tally/internal/tally"
)

var (
	strictValidation bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate invoice record files",
	Long: `Validate one or more invoice records (JSON) without writing XML.

Checks performed:
  - Record structure (fields hold the expected JSON types)
  - Invoice number, date and line item fields present
  - Date convertible to Tally's YYYYMMDD form
  - Voucher balance (full mode)

Examples:
  invoice-tally validate invoice.json
  invoice-tally validate records/ --strict`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&strictValidation, "strict", false, "Treat findings as failures")
}

// ValidationResult holds validation results for a file
type ValidationResult struct {
	File     string                   `json:"file"`
	Valid    bool                     `json:"valid"`
	Balance  string                   `json:"balance,omitempty"`
	Findings []*model.ValidationError `json:"validation_errors"`
	Error    string                   `json:"error,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, isRecordFile)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	compiler := newCompiler()
	results := make([]*ValidationResult, 0, len(files))
	allValid := true

	for _, file := range files {
		result := validateFile(compiler, file)
		results = append(results, result)

		if !result.Valid {
			allValid = false
		}
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		if err := outputJSON(out, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			switch {
			case r.Error != "":
				fmt.Fprintf(out, "✗ %s: %s\n", r.File, r.Error)
			case r.Valid && len(r.Findings) == 0:
				fmt.Fprintf(out, "✓ %s: VALID\n", r.File)
			case r.Valid:
				fmt.Fprintf(out, "⚠ %s: VALID with %d findings\n", r.File, len(r.Findings))
			default:
				fmt.Fprintf(out, "✗ %s: INVALID\n", r.File)
			}
			for _, f := range r.Findings {
				fmt.Fprintf(out, "  - %s\n", f.Error())
			}
		}
	}

	if !allValid {
		return fmt.Errorf("validation failed for some files")
	}

	return nil
}

func validateFile(compiler *tally.Compiler, filePath string) *ValidationResult {
	result := &ValidationResult{
		File:     filePath,
		Valid:    true,
		Findings: []*model.ValidationError{},
	}

	data, err := readInput(filePath)
	if err != nil {
		result.Valid = false
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	rec, err := model.ParseInvoiceRecord(data)
	if err != nil {
		result.Valid = false
		result.Error = err.Error()
		return result
	}

	voucher, findings, err := compiler.Build(rec)
	if err != nil {
		result.Valid = false
		result.Error = err.Error()
		return result
	}

	if findings != nil {
		result.Findings = findings
	}
	if compiler.Mode() == tally.ModeFull {
		result.Balance = money.Format(voucher.Balance())
	}
	if strictValidation && len(result.Findings) > 0 {
		result.Valid = false
	}

	return result
}
