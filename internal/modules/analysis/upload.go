package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/aristath/chartlens/internal/domain"
)

// Multipart form field names
const (
	FieldChart        = "chart"
	FieldTradingStyle = "tradingStyle"
)

// DefaultMaxUploadBytes is the image ceiling (10 MiB)
const DefaultMaxUploadBytes int64 = 10 * 1024 * 1024

const (
	// multipartOverhead covers boundaries, headers and small text fields
	multipartOverhead int64 = 1 << 20
	maxStyleBytes     int64 = 1 << 10
)

// Upload is a validated chart submission read from a multipart request.
type Upload struct {
	Filename     string
	MIMEType     string
	Data         []byte
	TradingStyle string
}

// ReadUpload streams the multipart body of r and enforces presence, type and size of the chart.
func ReadUpload(w http.ResponseWriter, r *http.Request, maxBytes int64) (*Upload, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)

	reader, err := r.MultipartReader()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, ErrNoFile
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedUpload, err)
	}

	upload := &Upload{}
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, classifyReadError(err)
		}

		switch part.FormName() {
		case FieldChart:
			if upload.Data != nil || part.FileName() == "" {
				part.Close()
				continue
			}
			if err := readChart(part, maxBytes, upload); err != nil {
				part.Close()
				return nil, err
			}
		case FieldTradingStyle:
			value, err := io.ReadAll(io.LimitReader(part, maxStyleBytes))
			if err != nil {
				part.Close()
				return nil, classifyReadError(err)
			}
			upload.TradingStyle = string(value)
		}
		part.Close()
	}

	if len(upload.Data) == 0 {
		return nil, ErrNoFile
	}
	return upload, nil
}

func readChart(part *multipart.Part, maxBytes int64, upload *Upload) error {
	mimeType := part.Header.Get("Content-Type")
	if !domain.IsSupportedImageType(mimeType) {
		return ErrUnsupportedType
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(part, maxBytes+1))
	if err != nil {
		return classifyReadError(err)
	}
	if n > maxBytes {
		return ErrFileTooLarge
	}

	upload.Filename = part.FileName()
	upload.MIMEType = mimeType
	upload.Data = buf.Bytes()
	return nil
}

func classifyReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrFileTooLarge
	}
	return fmt.Errorf("%w: %v", ErrMalformedUpload, err)
}
