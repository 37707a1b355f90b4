package docgen

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// line is one paragraph in a generated document.
type line struct {
	text      string
	bold      bool
	underline bool
	center    bool
	halfPts   int // font size in half-points; 0 means the 11pt default
}

const defaultFont = "Century Schoolbook"

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// writeDocx assembles a minimal but valid .docx package from paragraphs.
func writeDocx(lines []line) ([]byte, error) {
	var doc strings.Builder
	doc.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	doc.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	for _, l := range lines {
		doc.WriteString("<w:p>")
		if l.center {
			doc.WriteString(`<w:pPr><w:jc w:val="center"/></w:pPr>`)
		}
		if l.text != "" {
			doc.WriteString("<w:r><w:rPr>")
			fmt.Fprintf(&doc, `<w:rFonts w:ascii=%q w:hAnsi=%q/>`, defaultFont, defaultFont)
			if l.bold {
				doc.WriteString("<w:b/>")
			}
			if l.underline {
				doc.WriteString(`<w:u w:val="single"/>`)
			}
			sz := l.halfPts
			if sz == 0 {
				sz = 22
			}
			fmt.Fprintf(&doc, `<w:sz w:val="%d"/>`, sz)
			doc.WriteString("</w:rPr>")
			fmt.Fprintf(&doc, `<w:t xml:space="preserve">%s</w:t>`, escapeXML(l.text))
			doc.WriteString("</w:r>")
		}
		doc.WriteString("</w:p>")
	}

	doc.WriteString(`<w:sectPr><w:pgMar w:top="1080" w:bottom="1080" w:left="1080" w:right="1080"/></w:sectPr>`)
	doc.WriteString("</w:body></w:document>")

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entries := []struct {
		name string
		body string
	}{
		{"[Content_Types].xml", contentTypesXML},
		{"_rels/.rels", relsXML},
		{"word/document.xml", doc.String()},
	}

	for _, entry := range entries {
		w, err := zw.Create(entry.name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", entry.name, err)
		}
		if _, err := w.Write([]byte(entry.body)); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", entry.name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize docx package: %w", err)
	}

	return buf.Bytes(), nil
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	// xml.EscapeText only errors on a failing writer; bytes.Buffer never fails.
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
