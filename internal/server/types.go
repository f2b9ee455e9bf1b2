package server

import (
	"time"

	"github.com/rezonia/invoice-tally/internal/model"
)

// ProcessResponse is the response for the process and compile endpoints
type ProcessResponse struct {
	Success          bool                     `json:"success"`
	Data             *model.InvoiceRecord     `json:"data"`
	TallyXML         string                   `json:"tally_xml"`
	ValidationErrors []*model.ValidationError `json:"validation_errors"`
	HistoryID        string                   `json:"history_id,omitempty"`
	Method           string                   `json:"method,omitempty"`
	Adapter          string                   `json:"adapter,omitempty"`
	MimeType         string                   `json:"mime_type,omitempty"`
	Balanced         *bool                    `json:"balanced,omitempty"`
	Warnings         []string                 `json:"warnings,omitempty"`
}

// ValidationResponse is the response for the validate endpoint
type ValidationResponse struct {
	Valid    bool                     `json:"valid"`
	Balance  string                   `json:"balance,omitempty"`
	Findings []*model.ValidationError `json:"validation_errors"`
}

// InfoResponse is the response for info endpoint
type InfoResponse struct {
	Format   string `json:"format"`
	MimeType string `json:"mime_type"`
	Size     int    `json:"size"`
	Pages    int    `json:"pages,omitempty"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error    string   `json:"error"`
	Details  string   `json:"details,omitempty"`
	Field    string   `json:"field,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// HistoryItem is the list view of a history entry
type HistoryItem struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	FileName      string    `json:"file_name,omitempty"`
	VoucherType   string    `json:"voucher_type"`
	VoucherNumber string    `json:"voucher_number"`
	PartyName     string    `json:"party_name"`
	Total         string    `json:"total"`
	Findings      int       `json:"findings"`
}

// HistoryListResponse is the response for the history list endpoint
type HistoryListResponse struct {
	Items []HistoryItem `json:"items"`
	Count int           `json:"count"`
}
