// Package cli implements the terminal front end: loading a local chart,
// asking for a trading style and rendering the analysis.
package cli

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/aristath/chartlens/internal/domain"
	"github.com/aristath/chartlens/internal/modules/analysis"
)

// ChartFile is a local chart image that passed the same checks as an upload.
type ChartFile struct {
	Path     string
	MIMEType string
	Data     []byte
}

// LoadImage reads path and applies the upload rules. Unlike the HTTP path the
// type is sniffed from the content, since a file on disk has no declared type.
func LoadImage(path string, maxBytes int64) (*ChartFile, error) {
	if maxBytes <= 0 {
		maxBytes = analysis.DefaultMaxUploadBytes
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open chart: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read chart: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return nil, analysis.ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, analysis.ErrNoFile
	}

	mimeType := http.DetectContentType(data)
	if !domain.IsSupportedImageType(mimeType) {
		return nil, fmt.Errorf("%w: detected %s", analysis.ErrUnsupportedType, mimeType)
	}

	return &ChartFile{Path: path, MIMEType: mimeType, Data: data}, nil
}
