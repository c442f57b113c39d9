package docparse

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func zipDoc(t *testing.T, name, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("zipDoc() failed: %v", err)
	}
	if _, err = w.Write([]byte(content)); err != nil {
		t.Fatalf("zipDoc() failed: %v", err)
	}
	if err = zw.Close(); err != nil {
		t.Fatalf("zipDoc() failed: %v", err)
	}
	return buf.Bytes()
}

func TestExtract_plainText(t *testing.T) {
	out, err := Extract("notes.txt", []byte("mitochondria is the powerhouse"))
	assert.NoError(t, err)
	assert.Equal(t, "mitochondria is the powerhouse", out)

	out, err = Extract("notes.md", []byte("# Heading"))
	assert.NoError(t, err)
	assert.Equal(t, "# Heading", out)
}

func TestExtract_docx(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body><w:p><w:r><w:t>Cell biology</w:t></w:r><w:r><w:t>chapter two</w:t></w:r></w:p></w:body>
</w:document>`
	data := zipDoc(t, "word/document.xml", doc)

	out, err := Extract("lecture.docx", data)
	assert.NoError(t, err)
	assert.Contains(t, out, "Cell biology")
	assert.Contains(t, out, "chapter two")
}

func TestExtract_pptx(t *testing.T) {
	slide := `<?xml version="1.0"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"
       xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main">
  <p:cSld><a:t>Photosynthesis overview</a:t></p:cSld>
</p:sld>`
	data := zipDoc(t, "ppt/slides/slide1.xml", slide)

	out, err := Extract("deck.pptx", data)
	assert.NoError(t, err)
	assert.Contains(t, out, "Photosynthesis overview")
}

func TestExtract_unsupportedType(t *testing.T) {
	_, err := Extract("photo.png", []byte{0x89, 0x50})
	assert.Equal(t, ErrUnsupportedType, err)
}

func TestExtract_emptyDocument(t *testing.T) {
	_, err := Extract("blank.txt", []byte("   \n\t"))
	assert.Equal(t, ErrNoText, err)

	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body/></w:document>`
	_, err = Extract("blank.docx", zipDoc(t, "word/document.xml", doc))
	assert.Equal(t, ErrNoText, err)
}

func TestExtract_corruptArchive(t *testing.T) {
	_, err := Extract("broken.docx", []byte("not a zip at all"))
	assert.Error(t, err)
	assert.NotEqual(t, ErrUnsupportedType, errors.Cause(err))
}

func TestExtract_corruptPDF(t *testing.T) {
	_, err := Extract("broken.pdf", []byte("not a pdf"))
	assert.Error(t, err)
}
