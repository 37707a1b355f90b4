package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Word document XML structures. Run text is chardata because a single run may
// hold multiple w:t elements.
type wordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    wordBody `xml:"body"`
}

type wordBody struct {
	Paragraphs []wordParagraph `xml:"p"`
	Tables     []wordTable     `xml:"tbl"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Text []wordText `xml:"t"`
}

type wordText struct {
	Content string `xml:",chardata"`
}

type wordTable struct {
	Rows []wordRow `xml:"tr"`
}

type wordRow struct {
	Cells []wordCell `xml:"tc"`
}

type wordCell struct {
	Paragraphs []wordParagraph `xml:"p"`
}

// ExtractDOCX pulls plain text out of a .docx file: paragraph text in
// document order, then table rows with cells joined by " | ", one row per
// line.
func ExtractDOCX(data []byte) (string, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX as ZIP: %w", err)
	}

	var documentFile *zip.File
	for _, file := range zipReader.File {
		if file.Name == "word/document.xml" {
			documentFile = file
			break
		}
	}

	if documentFile == nil {
		return "", fmt.Errorf("document.xml not found in DOCX")
	}

	xmlFile, err := documentFile.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer xmlFile.Close()

	xmlData, err := io.ReadAll(xmlFile)
	if err != nil {
		return "", fmt.Errorf("failed to read document.xml: %w", err)
	}

	var doc wordDocument
	if err := xml.Unmarshal(xmlData, &doc); err != nil {
		return "", fmt.Errorf("failed to parse document.xml: %w", err)
	}

	var lines []string
	for _, para := range doc.Body.Paragraphs {
		if text := paragraphText(para); text != "" {
			lines = append(lines, text)
		}
	}

	for _, table := range doc.Body.Tables {
		for _, row := range table.Rows {
			var cells []string
			for _, cell := range row.Cells {
				var cellParts []string
				for _, para := range cell.Paragraphs {
					if text := paragraphText(para); text != "" {
						cellParts = append(cellParts, text)
					}
				}
				if len(cellParts) > 0 {
					cells = append(cells, strings.Join(cellParts, " "))
				}
			}
			if len(cells) > 0 {
				lines = append(lines, strings.Join(cells, " | "))
			}
		}
	}

	extractedText := strings.TrimSpace(strings.Join(lines, "\n"))

	if extractedText == "" {
		return "", fmt.Errorf("no text could be extracted from DOCX")
	}

	return extractedText, nil
}

func paragraphText(para wordParagraph) string {
	var b strings.Builder
	for _, run := range para.Runs {
		for _, text := range run.Text {
			b.WriteString(text.Content)
		}
	}
	return strings.TrimSpace(b.String())
}
