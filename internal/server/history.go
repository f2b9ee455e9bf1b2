package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rezonia/invoice-tally/internal/history"
)

// historyStore returns the store, or writes 503 when history is disabled
func (s *Server) historyStore(c *gin.Context) (history.Store, bool) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "history is disabled"})
		return nil, false
	}
	return s.history, true
}

func (s *Server) handleHistoryList(c *gin.Context) {
	store, ok := s.historyStore(c)
	if !ok {
		return
	}

	entries, err := store.List()
	if err != nil {
		fail(c, err, nil)
		return
	}

	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryItem{
			ID:            e.ID,
			CreatedAt:     e.CreatedAt,
			FileName:      e.FileName,
			VoucherType:   e.VoucherType,
			VoucherNumber: e.VoucherNumber,
			PartyName:     e.PartyName,
			Total:         e.Total,
			Findings:      len(e.Findings),
		})
	}

	c.JSON(http.StatusOK, HistoryListResponse{Items: items, Count: len(items)})
}

func (s *Server) handleHistoryGet(c *gin.Context) {
	store, ok := s.historyStore(c)
	if !ok {
		return
	}

	entry, err := store.Get(c.Param("id"))
	if err != nil {
		fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) handleHistoryXML(c *gin.Context) {
	store, ok := s.historyStore(c)
	if !ok {
		return
	}

	entry, err := store.Get(c.Param("id"))
	if err != nil {
		fail(c, err, nil)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.DownloadName()))
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(entry.XML))
}

func (s *Server) handleHistoryJSON(c *gin.Context) {
	store, ok := s.historyStore(c)
	if !ok {
		return
	}

	entry, err := store.Get(c.Param("id"))
	if err != nil {
		fail(c, err, nil)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "invoice_"+entry.ID+".json"))
	c.JSON(http.StatusOK, entry.Record)
}

func (s *Server) handleHistoryDelete(c *gin.Context) {
	store, ok := s.historyStore(c)
	if !ok {
		return
	}

	if err := store.Delete(c.Param("id")); err != nil {
		fail(c, err, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleHistoryClear(c *gin.Context) {
	store, ok := s.historyStore(c)
	if !ok {
		return
	}

	n, err := store.Clear()
	if err != nil {
		fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
