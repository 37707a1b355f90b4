package extractor

import (
	"path/filepath"
	"strings"

	"github.com/refresh-agent/refresh-api/internal/utils"
)

// Extract converts a raw document into plain text, dispatching on the
// filename suffix (case-insensitive). Unknown suffixes are treated as plain
// text; the legacy .doc binary format fails fast because nothing here can
// parse it.
func Extract(data []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx":
		return ExtractDOCX(data)
	case ".pdf":
		return ExtractPDF(data)
	case ".txt":
		return ExtractTXT(data)
	case ".doc":
		return "", utils.NewUnsupportedFormatError(
			"Legacy .doc format not supported. Please convert to .docx")
	default:
		return ExtractTXT(data)
	}
}
