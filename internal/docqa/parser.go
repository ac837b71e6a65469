package docqa

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/gen2brain/go-fitz"

	"github.com/Dipta-Banik/Multimodal-Chatbot/internal/domain"
)

var ErrUnsupportedDocument = errors.New("unsupported document type")

type documentKind int

const (
	kindUnknown documentKind = iota
	kindPDF
	kindHTML
	kindText
)

func detectKind(upload domain.Upload) documentKind {
	mediaType, _, _ := mime.ParseMediaType(upload.MIMEType)
	ext := strings.ToLower(filepath.Ext(upload.Name))

	switch {
	case mediaType == "application/pdf" || ext == ".pdf" || bytes.HasPrefix(upload.Data, []byte("%PDF-")):
		return kindPDF
	case mediaType == "text/html" || mediaType == "application/xhtml+xml" || ext == ".html" || ext == ".htm":
		return kindHTML
	case strings.HasPrefix(mediaType, "text/") || ext == ".txt" || ext == ".md":
		return kindText
	case mediaType == "" && utf8.Valid(upload.Data):
		return kindText
	default:
		return kindUnknown
	}
}

// ExtractText returns the plain text of an uploaded document.
func ExtractText(upload domain.Upload) (string, error) {
	var (
		text string
		err  error
	)

	switch detectKind(upload) {
	case kindPDF:
		text, err = extractPDF(upload.Data)
	case kindHTML:
		text, err = extractHTML(upload.Data)
	case kindText:
		text = strings.ToValidUTF8(string(upload.Data), "")
	default:
		return "", fmt.Errorf("%w (name = %s, type = %s)", ErrUnsupportedDocument, upload.Name, upload.MIMEType)
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

func extractPDF(data []byte) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}
	defer doc.Close()

	var pages []string
	for i := range doc.NumPage() {
		text, err := doc.Text(i)
		if err == nil && strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create document from reader: %w", err)
	}

	doc.Find("script, style, noscript, template, svg").Remove()
	doc.Find("br").Each(func(_ int, br *goquery.Selection) {
		br.ReplaceWithHtml("\n")
	})
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, tr").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var lines []string
	for line := range strings.SplitSeq(root.Text(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n"), nil
}
