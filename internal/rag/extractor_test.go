package rag

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextParserSupports(t *testing.T) {
	parser := &TextParser{}

	assert.True(t, parser.Supports("notes.txt"))
	assert.True(t, parser.Supports("README.md"))
	assert.True(t, parser.Supports("doc.MARKDOWN"))
	assert.False(t, parser.Supports("report.pdf"))
}

func TestTextParserParse(t *testing.T) {
	parser := &TextParser{}

	text, err := parser.Parse(strings.NewReader("hello\nworld"), "notes.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", text)
}

func TestPDFParserSupports(t *testing.T) {
	parser := &PDFParser{}

	assert.True(t, parser.Supports("report.pdf"))
	assert.True(t, parser.Supports("REPORT.PDF"))
	assert.False(t, parser.Supports("report.docx"))
}

func TestWordParserSupports(t *testing.T) {
	parser := &WordParser{}

	assert.True(t, parser.Supports("letter.docx"))
	assert.False(t, parser.Supports("letter.doc"))
	assert.False(t, parser.Supports("letter.txt"))
}

func TestFileParserManagerUnsupportedFormat(t *testing.T) {
	manager := NewFileParserManager()

	_, err := manager.ParseFile(strings.NewReader("data"), "archive.zip")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestFileParserManagerDispatch(t *testing.T) {
	manager := NewFileParserManager()

	text, err := manager.ParseFile(strings.NewReader("plain content"), "file.txt")
	require.NoError(t, err)
	assert.Equal(t, "plain content", text)
}

func TestFileParserManagerExtractionError(t *testing.T) {
	manager := NewFileParserManager()

	// 无效的PDF字节应产生包装底层原因的ExtractionError
	_, err := manager.ParseFile(strings.NewReader("not a pdf"), "broken.pdf")
	require.Error(t, err)

	var extractionErr *ExtractionError
	require.True(t, errors.As(err, &extractionErr))
	assert.Equal(t, "broken.pdf", extractionErr.Filename)
	assert.Error(t, extractionErr.Unwrap())
}

func TestFileParserManagerSupports(t *testing.T) {
	manager := NewFileParserManager()

	assert.True(t, manager.Supports("a.pdf"))
	assert.True(t, manager.Supports("a.docx"))
	assert.True(t, manager.Supports("a.xlsx"))
	assert.True(t, manager.Supports("a.txt"))
	assert.True(t, manager.Supports("a.md"))
	assert.False(t, manager.Supports("a.exe"))
}
