package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	money "github.com/rezonia/invoice-tally/internal/decimal"
	"github.com/rezonia/invoice-tally/internal/history"
	"github.com/rezonia/invoice-tally/internal/model"
	"github.com/rezonia/invoice-tally/pkg/tallylib"
)

var (
	outputFile  string
	xmlDir      string
	timeout     time.Duration
	concurrency int
	saveHistory bool
)

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Extract and compile invoice files",
	Long: `Process one or more invoice documents into Tally vouchers.

Supported inputs:
  - PDF: .pdf (page limit: MAX_PDF_PAGES)
  - Images: .png, .jpg, .jpeg, .webp, .tiff
  - Text: .txt
  - Invoice record JSON: .json (compiled directly)

Documents other than record JSON need an extraction provider
(LLM_API_KEY, or GEMINI_API_KEY with --provider gemini).

Examples:
  invoice-tally process invoice.pdf --api-key <key>
  invoice-tally process scans/ --xml-dir out/ --save
  invoice-tally process *.json -f json -o results.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	processCmd.Flags().StringVar(&xmlDir, "xml-dir", "", "Write one Tally XML file per invoice into this directory")
	processCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Processing timeout per file")
	processCmd.Flags().IntVarP(&concurrency, "concurrency", "c", runtime.GOMAXPROCS(0), "Files processed in parallel")
	processCmd.Flags().BoolVar(&saveHistory, "save", false, "Record compiled invoices in the history database")
}

// ProcessResult holds the result of processing a single file
type ProcessResult struct {
	File      string                   `json:"file"`
	Record    *model.InvoiceRecord     `json:"data,omitempty"`
	TallyXML  string                   `json:"tally_xml,omitempty"`
	Findings  []*model.ValidationError `json:"validation_errors,omitempty"`
	Number    string                   `json:"voucher_number,omitempty"`
	Type      string                   `json:"voucher_type,omitempty"`
	Date      string                   `json:"date,omitempty"`
	Party     string                   `json:"party,omitempty"`
	Total     string                   `json:"total,omitempty"`
	Method    string                   `json:"method,omitempty"`
	Adapter   string                   `json:"adapter,omitempty"`
	Warnings  []string                 `json:"warnings,omitempty"`
	XMLFile   string                   `json:"xml_file,omitempty"`
	HistoryID string                   `json:"history_id,omitempty"`
	Error     string                   `json:"error,omitempty"`
}

func runProcess(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, isDocumentFile)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to process")
	}

	printVerbose("Found %d files to process\n", len(files))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	proc, err := newProcessor(ctx, concurrency)
	if err != nil {
		return err
	}
	defer proc.Close()

	var store history.Store
	if saveHistory {
		s, err := openHistory()
		if err != nil {
			return err
		}
		defer s.Close()
		store = s
	}

	if xmlDir != "" {
		if err := os.MkdirAll(xmlDir, 0o755); err != nil {
			return fmt.Errorf("create xml dir: %w", err)
		}
	}

	docs := make([]tallylib.Document, 0, len(files))
	results := make([]*ProcessResult, 0, len(files))
	for _, file := range files {
		data, err := readInput(file)
		if err != nil {
			results = append(results, &ProcessResult{File: file, Error: fmt.Sprintf("failed to read file: %v", err)})
			continue
		}
		docs = append(docs, tallylib.Document{Name: file, Data: data})
	}

	batchCtx, cancel := context.WithTimeout(ctx, timeout*time.Duration(len(docs)/max(concurrency, 1)+1))
	defer cancel()

	batch, err := proc.ProcessBatch(batchCtx, docs)
	if err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}

	for _, br := range batch {
		result := toProcessResult(br)
		if result.Error == "" {
			finishResult(result, br.Result, store)
		}

		if result.Error != "" {
			printVerbose("%s: error: %s\n", result.File, result.Error)
		} else {
			printVerbose("%s: voucher %s, %d findings, method %s\n", result.File, result.Number, len(result.Findings), result.Method)
		}
		results = append(results, result)
	}

	return outputResults(results)
}

func toProcessResult(br tallylib.BatchResult) *ProcessResult {
	result := &ProcessResult{File: br.Name}
	res := br.Result
	if res == nil {
		result.Error = "not processed"
		return result
	}

	result.Method = string(res.Method)
	result.Adapter = res.Adapter
	result.Warnings = res.Warnings
	if res.Error != nil {
		result.Error = res.Error.Error()
		return result
	}

	result.Record = res.Record
	result.TallyXML = res.XML
	result.Findings = res.Findings
	if v := res.Voucher; v != nil {
		result.Number = v.Number
		result.Type = v.VoucherType
		result.Date = v.Date
		result.Party = v.Party.LedgerName
		result.Total = money.Format(v.Party.Amount.Abs())
	}
	return result
}

// finishResult writes the XML file and history entry for a compiled result
func finishResult(result *ProcessResult, res *tallylib.ProcessResult, store history.Store) {
	if xmlDir != "" {
		path := filepath.Join(xmlDir, voucherFileName(result.Number, result.File))
		if err := os.WriteFile(path, []byte(result.TallyXML), 0o644); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("xml not written: %v", err))
		} else {
			result.XMLFile = path
		}
	}

	if store != nil {
		entry := &history.Entry{
			FileName:      filepath.Base(result.File),
			MIMEType:      res.MIMEType,
			Method:        result.Method,
			VoucherType:   result.Type,
			VoucherNumber: result.Number,
			PartyName:     result.Party,
			Total:         result.Total,
			Record:        res.Record,
			XML:           res.XML,
			Findings:      res.Findings,
		}
		if err := store.Save(entry); err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("history not saved: %v", err))
		} else {
			result.HistoryID = entry.ID
		}
	}
}

func outputResults(results []*ProcessResult) error {
	var writer io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	switch outputFormat {
	case "json":
		return outputJSON(writer, results)
	case "table":
		return outputTable(writer, results)
	case "csv":
		return outputCSV(writer, results)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputTable(w io.Writer, results []*ProcessResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tNUMBER\tTYPE\tDATE\tPARTY\tTOTAL\tFINDINGS\tMETHOD\tXML")
	fmt.Fprintln(tw, "----\t------\t----\t----\t-----\t-----\t--------\t------\t---")

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\tERROR: %s\t\t\t\t\t\t\t\n", r.File, r.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.File,
			r.Number,
			r.Type,
			r.Date,
			r.Party,
			r.Total,
			len(r.Findings),
			r.Method,
			r.XMLFile,
		)
	}

	return tw.Flush()
}

func outputCSV(w io.Writer, results []*ProcessResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"file", "voucher_number", "voucher_type", "date", "party", "total", "findings", "method", "xml_file", "history_id", "error"}); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			r.File,
			r.Number,
			r.Type,
			r.Date,
			r.Party,
			r.Total,
			strconv.Itoa(len(r.Findings)),
			r.Method,
			r.XMLFile,
			r.HistoryID,
			r.Error,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
