package processor

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

var disableConfigDir sync.Once

// PageCount returns the number of pages in a PDF document
func PageCount(data []byte) (int, error) {
	// pdfcpu writes a config directory on first use unless disabled
	disableConfigDir.Do(api.DisableConfigDir)

	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("reading pdf: %w", err)
	}
	return n, nil
}
