package processor_test

import (
	"bytes"
	"fmt"
	"strings"
)

// minimalPDF builds a valid PDF with n blank pages and a correct xref table
func minimalPDF(n int) []byte {
	var buf bytes.Buffer
	offsets := []int{}

	write := func(obj string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(obj)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, n)
	for i := 0; i < n; i++ {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}

	write("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	write(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", strings.Join(kids, " "), n))
	for i := 0; i < n; i++ {
		write(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", i+3))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)

	return buf.Bytes()
}
