package resume

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDOC  = "application/msword"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// ErrUnsupportedType is returned for files that are not PDF, DOC or DOCX.
var ErrUnsupportedType = errors.New("only PDF, DOC and DOCX files are accepted")

// OLE2 compound file header used by legacy .doc files.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// DetectType checks that the extension of fileName and the sniffed content agree
// and returns the canonical content type and extension.
func DetectType(fileName string, data []byte) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	sniffed := http.DetectContentType(data)

	switch ext {
	case ".pdf":
		if sniffed == MIMEPDF {
			return MIMEPDF, ext, nil
		}
	case ".doc":
		if bytes.HasPrefix(data, oleMagic) {
			return MIMEDOC, ext, nil
		}
	case ".docx":
		if sniffed == "application/zip" && isDocx(data) {
			return MIMEDOCX, ext, nil
		}
	}
	return "", "", fmt.Errorf("%w (got %s as %s)", ErrUnsupportedType, ext, sniffed)
}

func isDocx(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			return true
		}
	}
	return false
}

// maxDocxBodyBytes caps the decompressed size of word/document.xml.
var maxDocxBodyBytes int64 = 16 << 20

// ErrDocxTooLarge is returned when a DOCX body decompresses past maxDocxBodyBytes.
var ErrDocxTooLarge = errors.New("docx body exceeds size limit")

// cappedReader fails once more than max bytes have been read.
type cappedReader struct {
	r    io.Reader
	max  int64
	read int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.read > c.max {
		return n, ErrDocxTooLarge
	}
	return n, err
}

// DocxText returns the paragraph text of a DOCX document.
func DocxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("invalid docx: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		if f.UncompressedSize64 > uint64(maxDocxBodyBytes) {
			return "", ErrDocxTooLarge
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open docx body: %w", err)
		}
		defer rc.Close()
		return paragraphs(&cappedReader{r: io.LimitReader(rc, maxDocxBodyBytes+1), max: maxDocxBodyBytes})
	}
	return "", fmt.Errorf("invalid docx: missing word/document.xml")
}

// paragraphs collects <w:t> runs, one line per <w:p>.
func paragraphs(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read docx body: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
