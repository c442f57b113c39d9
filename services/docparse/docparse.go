// Package docparse extracts plain text from uploaded study documents so it
// can be fed to the AI service.
package docparse

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedType is returned for file types no extractor handles.
	ErrUnsupportedType = errors.New("unsupported file type; please upload a PDF, Word, PowerPoint or plain-text file")

	// ErrNoText is returned when extraction yields nothing usable, e.g. a
	// scanned or image-based document.
	ErrNoText = errors.New("could not extract text; the document might be scanned or image-based")
)

// Extract returns the plain text of an uploaded document, dispatching on the
// file extension.
func Extract(filename string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		text, err = extractPDF(data)
	case ".docx", ".pptx":
		text, err = extractOOXML(data)
	case ".txt", ".md":
		text = string(data)
	default:
		return "", ErrUnsupportedType
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(err, "reading pdf")
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", errors.Wrap(err, "extracting pdf text")
	}
	var buf bytes.Buffer
	if _, err = buf.ReadFrom(plain); err != nil {
		return "", errors.Wrap(err, "extracting pdf text")
	}
	return buf.String(), nil
}

// extractOOXML pulls text runs out of a .docx or .pptx archive. Both formats
// are zips of XML where visible text lives in <w:t> / <a:t> elements.
func extractOOXML(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.Wrap(err, "opening document archive")
	}

	var b strings.Builder
	for _, f := range zr.File {
		if !isContentPart(f.Name) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", errors.Wrapf(err, "opening %s", f.Name)
		}
		err = collectTextRuns(rc, &b)
		_ = rc.Close()
		if err != nil {
			return "", errors.Wrapf(err, "parsing %s", f.Name)
		}
	}
	return b.String(), nil
}

func isContentPart(name string) bool {
	if name == "word/document.xml" {
		return true
	}
	return strings.HasPrefix(name, "ppt/slides/slide") && strings.HasSuffix(name, ".xml")
}

func collectTextRuns(r io.Reader, b *strings.Builder) error {
	dec := xml.NewDecoder(r)
	var inRun bool
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inRun = t.Name.Local == "t"
		case xml.EndElement:
			if t.Name.Local == "t" && inRun {
				b.WriteString(" ")
			}
			inRun = false
		case xml.CharData:
			if inRun {
				b.Write(t)
			}
		}
	}
}
