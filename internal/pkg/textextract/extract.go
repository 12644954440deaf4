// Package textextract turns uploaded restaurant files into prompt-ready text.
package textextract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	pdf "github.com/ledongthuc/pdf"
)

const MaxPDFPages = 50

type Kind string

const (
	KindPDF         Kind = "pdf"
	KindDOCX        Kind = "docx"
	KindText        Kind = "text"
	KindImage       Kind = "image"
	KindLegacyWord  Kind = "legacy_word"
	KindUnsupported Kind = "unsupported"
)

const (
	mimeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeMSWord    = "application/msword"
	mimeOctet     = "application/octet-stream"
	mimePDF       = "application/pdf"
	mimeCSV       = "text/csv"
	mimeMarkdown  = "text/markdown"
	mimeTextPlain = "text/plain"
)

type Result struct {
	Kind Kind
	// Text is the extracted content, or a placeholder line for kinds without extraction.
	Text      string
	Extracted bool
}

// Detect resolves the file kind from the declared MIME type, falling back to
// content sniffing when the declared type is missing or generic.
func Detect(name, declaredMime string, data []byte) Kind {
	mt := normalizeMime(declaredMime)
	if mt == "" || mt == mimeOctet {
		if len(data) > 0 {
			mt = normalizeMime(mimetype.Detect(data).String())
		}
	}
	if k := kindForMime(mt); k != KindUnsupported {
		return k
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF
	case ".docx":
		return KindDOCX
	case ".doc":
		return KindLegacyWord
	case ".txt", ".csv", ".md", ".markdown":
		return KindText
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".heic":
		return KindImage
	}
	return KindUnsupported
}

func kindForMime(mt string) Kind {
	switch {
	case mt == mimePDF:
		return KindPDF
	case mt == mimeDOCX:
		return KindDOCX
	case mt == mimeMSWord:
		return KindLegacyWord
	case mt == mimeTextPlain, mt == mimeCSV, mt == mimeMarkdown, mt == "text/x-markdown":
		return KindText
	case strings.HasPrefix(mt, "image/"):
		return KindImage
	}
	return KindUnsupported
}

func normalizeMime(mt string) string {
	mt = strings.ToLower(strings.TrimSpace(mt))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}

func Extract(name, declaredMime string, data []byte) (Result, error) {
	kind := Detect(name, declaredMime, data)
	switch kind {
	case KindImage:
		return Result{Kind: kind, Text: fmt.Sprintf("[Image file %q: visual content is not extracted]", name)}, nil
	case KindLegacyWord:
		return Result{Kind: kind, Text: fmt.Sprintf("[Legacy Word document %q: ask the user to re-upload as .docx or PDF to read it]", name)}, nil
	case KindUnsupported:
		return Result{Kind: kind}, fmt.Errorf("unsupported file type: name=%s mime=%s", name, declaredMime)
	}
	if len(data) == 0 {
		return Result{Kind: kind}, fmt.Errorf("empty file: name=%s", name)
	}

	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, err = extractPDF(data, MaxPDFPages)
	case KindDOCX:
		text, err = extractDOCX(data)
	case KindText:
		text = strings.ToValidUTF8(string(data), "")
	}
	if err != nil {
		return Result{Kind: kind}, err
	}
	return Result{Kind: kind, Text: text, Extracted: true}, nil
}

// extractPDF converts the pdf reader's panics on malformed input into errors.
func extractPDF(data []byte, maxPages int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("pdf reader: %w", err)
	}
	total := r.NumPage()
	if maxPages > 0 && total > maxPages {
		total = maxPages
	}
	fonts := make(map[string]*pdf.Font)
	var out strings.Builder
	for i := 1; i <= total; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := p.Font(name)
				fonts[name] = &f
			}
		}
		txt, err := p.GetPlainText(fonts)
		if err != nil {
			// one unreadable page should not lose the rest of the document
			continue
		}
		txt = collapseWhitespace(txt)
		if txt == "" {
			continue
		}
		fmt.Fprintf(&out, "--- Page %d ---\n%s\n", i, txt)
	}
	s := strings.TrimSpace(out.String())
	if s == "" {
		return "", fmt.Errorf("no text extracted from pdf")
	}
	return s, nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("docx container: %w", err)
	}
	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("docx missing word/document.xml")
	}
	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	s := strings.TrimSpace(docxParagraphs(b))
	if s == "" {
		return "", fmt.Errorf("no text extracted from docx")
	}
	return s, nil
}

// docxParagraphs gathers <w:t> runs, breaking lines at </w:p>.
func docxParagraphs(xmlBytes []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
	var out, para strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var v string
				if err := dec.DecodeElement(&v, &t); err == nil {
					para.WriteString(v)
				}
			case "tab":
				para.WriteString("\t")
			}
		case xml.EndElement:
			if t.Name.Local == "p" {
				if line := strings.TrimSpace(para.String()); line != "" {
					out.WriteString(line)
					out.WriteString("\n")
				}
				para.Reset()
			}
		}
	}
	if line := strings.TrimSpace(para.String()); line != "" {
		out.WriteString(line)
	}
	return out.String()
}

func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
