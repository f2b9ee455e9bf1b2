package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rezonia/invoice-tally/internal/history"
	"github.com/rezonia/invoice-tally/internal/model"
	"github.com/rezonia/invoice-tally/internal/parser/tallyxml"
)

// statusFor maps a pipeline or store error to an HTTP status
func statusFor(err error) int {
	var (
		recErr   *model.RecordError
		extErr   *model.ExtractionError
		parseErr *tallyxml.ParseError
		sizeErr  *http.MaxBytesError
	)

	switch {
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrEmptyDocument):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, model.ErrTooManyPages), errors.As(err, &sizeErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrNoExtractor):
		return http.StatusServiceUnavailable
	case errors.As(err, &recErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &parseErr), errors.Is(err, tallyxml.ErrNoVouchers):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &extErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as an ErrorResponse with the mapped status
func fail(c *gin.Context, err error, warnings []string) {
	_ = c.Error(err)

	resp := ErrorResponse{Error: err.Error(), Warnings: warnings}

	var recErr *model.RecordError
	if errors.As(err, &recErr) {
		resp.Error = "malformed invoice record"
		resp.Field = recErr.Path
		resp.Details = recErr.Message
	}
	var parseErr *tallyxml.ParseError
	if errors.As(err, &parseErr) {
		resp.Field = parseErr.Field
	}

	c.JSON(statusFor(err), resp)
}
