package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/invoice-tally/internal/model"
	"github.com/rezonia/invoice-tally/internal/parser/tallyxml"
	"github.com/rezonia/invoice-tally/internal/processor"
)

var infoCmd = &cobra.Command{
	Use:   "info [files...]",
	Short: "Show information about invoice files",
	Long: `Display information about files without extracting or compiling them.

Shows:
  - Detected file format (PDF, image, text, record JSON, XML)
  - PDF page count
  - Invoice number and type for record JSON
  - Company and voucher count for Tally import XML

Examples:
  invoice-tally info invoice.pdf
  invoice-tally info out/*.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, func(path string) bool {
		return isDocumentFile(path) || isXMLFile(path)
	})
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	out := cmd.OutOrStdout()
	for _, file := range files {
		printFileInfo(cmd.Context(), out, file)
		fmt.Fprintln(out)
	}

	return nil
}

func printFileInfo(ctx context.Context, w io.Writer, filePath string) {
	if ctx == nil {
		ctx = context.Background()
	}
	fmt.Fprintf(w, "File: %s\n", filePath)

	if filePath != "-" {
		info, err := os.Stat(filePath)
		if err != nil {
			fmt.Fprintf(w, "  Error: %v\n", err)
			return
		}
		fmt.Fprintf(w, "  Size: %d bytes\n", info.Size())
		fmt.Fprintf(w, "  Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
	}

	data, err := readInput(filePath)
	if err != nil {
		fmt.Fprintf(w, "  Error reading file: %v\n", err)
		return
	}

	format := processor.DetectFormat(data)
	fmt.Fprintf(w, "  Format: %s\n", format)
	fmt.Fprintf(w, "  MIME: %s\n", processor.DetectMIME(data))

	switch format {
	case processor.FormatPDF:
		pages, err := processor.PageCount(data)
		if err != nil {
			fmt.Fprintf(w, "  Pages: unreadable (%v)\n", err)
		} else {
			fmt.Fprintf(w, "  Pages: %d\n", pages)
		}

	case processor.FormatJSON:
		rec, err := model.ParseInvoiceRecord(data)
		if err != nil {
			fmt.Fprintf(w, "  Record: %v\n", err)
			return
		}
		fmt.Fprintf(w, "  Record: %s %s dated %s, %d line items\n",
			rec.TransactionType, rec.DocumentNumber, rec.DocumentDate, len(rec.LineItems))

	case processor.FormatXML:
		env, err := tallyxml.ParseBytes(ctx, data)
		if err != nil {
			fmt.Fprintf(w, "  Tally XML: %v\n", err)
			return
		}
		if env.Company != "" {
			fmt.Fprintf(w, "  Company: %s\n", env.Company)
		}
		fmt.Fprintf(w, "  Vouchers: %d\n", len(env.Vouchers))
	}
}
