// Package document extracts plain text from uploaded files.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	TypeText = "text/plain"
	TypePDF  = "application/pdf"

	typeOctetStream = "application/octet-stream"
)

// ErrUnsupportedType is returned for anything other than plain text or PDF.
var ErrUnsupportedType = errors.New("unsupported file type (only PDF and TXT allowed)")

// DetectType resolves the content type of an upload, falling back to the file
// extension when the part carries no Content-Type header.
func DetectType(filename, contentType string) (string, error) {
	if contentType != "" {
		mediaType, _, err := mime.ParseMediaType(contentType)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
		}
		contentType = mediaType
	}
	// Multipart clients commonly send octet-stream for any file.
	if contentType == "" || contentType == typeOctetStream {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".txt":
			contentType = TypeText
		case ".pdf":
			contentType = TypePDF
		default:
			contentType = ""
		}
	}

	switch contentType {
	case TypeText, TypePDF:
		return contentType, nil
	default:
		return "", ErrUnsupportedType
	}
}

// Extract returns the text content of a file of the given type.
func Extract(contentType string, content []byte) (string, error) {
	switch contentType {
	case TypeText:
		return string(content), nil
	case TypePDF:
		return extractPDF(content)
	default:
		return "", ErrUnsupportedType
	}
}

func extractPDF(content []byte) (string, error) {
	reader := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(reader, int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	var textBuilder strings.Builder
	numPages := pdfReader.NumPage()

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages that fail to extract
			continue
		}
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return strings.TrimSpace(textBuilder.String()), nil
}
