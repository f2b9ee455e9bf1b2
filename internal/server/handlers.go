package server

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	money "github.com/rezonia/invoice-tally/internal/decimal"
	"github.com/rezonia/invoice-tally/internal/history"
	"github.com/rezonia/invoice-tally/internal/model"
	"github.com/rezonia/invoice-tally/internal/parser/tallyxml"
	"github.com/rezonia/invoice-tally/internal/processor"
	"github.com/rezonia/invoice-tally/internal/tally"
)

// readBody reads a size-limited request body. It writes the error response
// itself and reports false when the handler should stop.
func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes)

	body, err := c.GetRawData()
	if err != nil {
		fail(c, fmt.Errorf("failed to read request body: %w", err), nil)
		return nil, false
	}
	if len(body) == 0 {
		fail(c, model.ErrEmptyDocument, nil)
		return nil, false
	}
	return body, true
}

// compilerFor applies the optional ?mode= override to the pipeline compiler
func (s *Server) compilerFor(c *gin.Context) (*tally.Compiler, bool) {
	base := s.pipeline.Compiler()

	switch mode := c.Query("mode"); mode {
	case "":
		return base, true
	case "full", "minimal":
		return base.WithOptions(tally.WithMode(tally.ParseMode(mode))), true
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid mode",
			Details: fmt.Sprintf("mode must be full or minimal, got %q", mode),
		})
		return nil, false
	}
}

// handleUpload accepts a multipart upload in the "invoice" field
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes)

	fh, err := c.FormFile("invoice")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file uploaded", Details: err.Error()})
		return
	}

	f, err := fh.Open()
	if err != nil {
		fail(c, fmt.Errorf("open upload: %w", err), nil)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		fail(c, fmt.Errorf("read upload: %w", err), nil)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.ProcessTimeout)
	defer cancel()

	result := s.pipeline.Process(ctx, data, fh.Header.Get("Content-Type"))
	s.respondProcessed(c, fh.Filename, result)
}

// handleProcess accepts the document as the raw request body
func (s *Server) handleProcess(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.ProcessTimeout)
	defer cancel()

	result := s.pipeline.Process(ctx, body, c.ContentType())
	s.respondProcessed(c, c.Query("filename"), result)
}

func (s *Server) respondProcessed(c *gin.Context, fileName string, result *processor.Result) {
	if result.Error != nil {
		fail(c, result.Error, result.Warnings)
		return
	}

	resp := ProcessResponse{
		Success:          true,
		Data:             result.Record,
		TallyXML:         result.XML,
		ValidationErrors: nonNil(result.Findings),
		Method:           string(result.Method),
		Adapter:          result.Adapter,
		MimeType:         result.MIMEType,
		Balanced:         balanced(s.pipeline.Compiler().Mode(), result.Voucher),
		Warnings:         result.Warnings,
	}

	resp.HistoryID, resp.Warnings = s.remember(c, &history.Entry{
		FileName: fileName,
		MIMEType: result.MIMEType,
		Method:   string(result.Method),
		Record:   result.Record,
		XML:      result.XML,
		Findings: result.Findings,
	}, result.Voucher, resp.Warnings)

	c.JSON(http.StatusOK, resp)
}

// handleCompile compiles an invoice record JSON without extraction
func (s *Server) handleCompile(c *gin.Context) {
	compiler, ok := s.compilerFor(c)
	if !ok {
		return
	}
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	rec, err := model.ParseInvoiceRecord(body)
	if err != nil {
		fail(c, err, nil)
		return
	}

	compiled, err := compiler.Compile(rec)
	if err != nil {
		fail(c, err, nil)
		return
	}

	resp := ProcessResponse{
		Success:          true,
		Data:             rec,
		TallyXML:         compiled.XML,
		ValidationErrors: nonNil(compiled.Findings),
		Method:           string(processor.MethodRecord),
		MimeType:         "application/json",
		Balanced:         balanced(compiler.Mode(), compiled.Voucher),
	}

	resp.HistoryID, resp.Warnings = s.remember(c, &history.Entry{
		FileName: c.Query("filename"),
		MIMEType: "application/json",
		Method:   string(processor.MethodRecord),
		Record:   rec,
		XML:      compiled.XML,
		Findings: compiled.Findings,
	}, compiled.Voucher, nil)

	c.JSON(http.StatusOK, resp)
}

// handleValidate reports the findings for an invoice record JSON
func (s *Server) handleValidate(c *gin.Context) {
	compiler, ok := s.compilerFor(c)
	if !ok {
		return
	}
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	rec, err := model.ParseInvoiceRecord(body)
	if err != nil {
		fail(c, err, nil)
		return
	}

	v, findings, err := compiler.Build(rec)
	if err != nil {
		fail(c, err, nil)
		return
	}

	resp := ValidationResponse{
		Valid:    len(findings) == 0,
		Findings: nonNil(findings),
	}
	if compiler.Mode() == tally.ModeFull {
		resp.Balance = money.Format(v.Balance())
	}
	c.JSON(http.StatusOK, resp)
}

// handleVerify reads a Tally import envelope and checks every voucher
func (s *Server) handleVerify(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	if format := processor.DetectFormat(body); format != processor.FormatXML {
		fail(c, fmt.Errorf("%w: verify expects Tally XML, got %s", model.ErrUnsupportedFormat, format), nil)
		return
	}

	env, err := tallyxml.ParseBytes(c.Request.Context(), body)
	if err != nil {
		fail(c, err, nil)
		return
	}

	report := tallyxml.Verify(env, tallyxml.DefaultTolerance)
	if report.AllValid {
		c.JSON(http.StatusOK, report)
	} else {
		c.JSON(http.StatusUnprocessableEntity, report)
	}
}

func (s *Server) handleInfo(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	format := processor.DetectFormat(body)
	resp := InfoResponse{
		Format:   format.String(),
		MimeType: processor.DetectMIME(body),
		Size:     len(body),
	}
	if format == processor.FormatPDF {
		if pages, err := processor.PageCount(body); err == nil {
			resp.Pages = pages
		}
	}

	c.JSON(http.StatusOK, resp)
}

// remember stores a compiled invoice when history is enabled. A failed save
// is reported as a warning; the compiled result is still returned.
func (s *Server) remember(c *gin.Context, entry *history.Entry, v *tally.Voucher, warnings []string) (string, []string) {
	if s.history == nil {
		return "", warnings
	}

	if v != nil {
		entry.VoucherType = v.VoucherType
		entry.VoucherNumber = v.Number
		entry.PartyName = v.Party.LedgerName
		entry.Total = money.Format(v.Party.Amount.Abs())
	}

	if err := s.history.Save(entry); err != nil {
		_ = c.Error(err)
		return "", append(warnings, "history not saved: "+err.Error())
	}
	return entry.ID, warnings
}

func balanced(mode tally.Mode, v *tally.Voucher) *bool {
	if v == nil || mode != tally.ModeFull {
		return nil
	}
	ok := v.IsBalanced(money.BalanceTolerance)
	return &ok
}

func nonNil(findings []*model.ValidationError) []*model.ValidationError {
	if findings == nil {
		return []*model.ValidationError{}
	}
	return findings
}
