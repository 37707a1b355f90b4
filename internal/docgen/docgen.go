package docgen

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/refresh-agent/refresh-api/internal/models"
)

// placeholderRe matches {{field_name}} markers left in generated text.
var placeholderRe = regexp.MustCompile(`\{\{([a-zA-Z0-9_ ]+)\}\}`)

// Generate renders a .docx for the given document type from field values.
// Unknown types fall back to the plain layout.
func Generate(docType string, fields []models.Field, bodyText string) ([]byte, error) {
	values := fieldValues(fields)
	body := ReplacePlaceholders(bodyText, values)

	switch strings.ToLower(docType) {
	case "memo", "memorandum":
		return writeDocx(memoLines(values, body))
	case "letter":
		return writeDocx(letterLines(values, body))
	default:
		return writeDocx(plainLines(values, body))
	}
}

// FromText renders synthesized plain text into a .docx with one paragraph
// per blank-line-separated block.
func FromText(text string) ([]byte, error) {
	var lines []line
	for _, block := range strings.Split(normalizeNewlines(text), "\n") {
		lines = append(lines, line{text: strings.TrimRight(block, " \t")})
	}
	if len(lines) == 0 {
		lines = append(lines, line{})
	}
	return writeDocx(lines)
}

// ReplacePlaceholders substitutes {{field_name}} markers with field values.
// Markers without a matching value are left in place so they stay visible.
func ReplacePlaceholders(text string, values map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		name := strings.TrimSpace(placeholderRe.FindStringSubmatch(m)[1])
		if v, ok := values[name]; ok && v != "" {
			return v
		}
		if v, ok := values[strings.ToLower(name)]; ok && v != "" {
			return v
		}
		return m
	})
}

// GenerateFilename builds "Type - Subject - MMDDYYYY.docx" from the document
// type and fields, trimming the subject to something filesystem-safe.
func GenerateFilename(docType string, fields []models.Field) string {
	values := fieldValues(fields)

	typePart := strings.TrimSpace(docType)
	if typePart == "" || typePart == "unknown" {
		typePart = "Document"
	}
	typePart = capitalize(typePart)

	subject := values["subject"]
	if subject == "" {
		subject = values["re"]
	}
	if subject == "" {
		subject = values["title"]
	}
	subject = safeSubject(subject)

	datePart := time.Now().Format("01022006")
	if subject == "" {
		return fmt.Sprintf("%s - %s.docx", typePart, datePart)
	}
	return fmt.Sprintf("%s - %s - %s.docx", typePart, subject, datePart)
}

// safeSubject keeps letters, digits, spaces, hyphens and underscores and
// caps the result at 30 characters.
func safeSubject(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if len(out) > 30 {
		out = strings.TrimSpace(out[:30])
	}
	return out
}

func fieldValues(fields []models.Field) map[string]string {
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		v := f.NewValue
		if v == "" {
			v = f.CurrentValue
		}
		values[f.FieldName] = v
	}
	return values
}

func memoLines(values map[string]string, body string) []line {
	lines := []line{
		{text: "MEMORANDUM", bold: true, center: true, halfPts: 28},
		{},
		{text: "TO: " + pick(values, "recipient", "to")},
		{text: "FROM: " + pick(values, "sender", "from")},
		{text: "DATE: " + orToday(pick(values, "date"))},
		{text: "RE: " + pick(values, "subject", "re")},
		{},
	}
	lines = append(lines, bodyLines(values, body)...)
	if cc := pick(values, "cc"); cc != "" {
		lines = append(lines, line{}, line{text: "cc: " + cc})
	}
	return lines
}

func letterLines(values map[string]string, body string) []line {
	lines := []line{
		{text: orToday(pick(values, "date"))},
		{},
		{text: pick(values, "recipient", "to")},
	}
	if addr := pick(values, "recipient_address", "address"); addr != "" {
		for _, part := range strings.Split(normalizeNewlines(addr), "\n") {
			lines = append(lines, line{text: part})
		}
	}
	lines = append(lines, line{})
	greeting := pick(values, "greeting", "salutation")
	if greeting == "" {
		if to := pick(values, "recipient", "to"); to != "" {
			greeting = "Dear " + to + ","
		} else {
			greeting = "To Whom It May Concern,"
		}
	}
	lines = append(lines, line{text: greeting}, line{})
	lines = append(lines, bodyLines(values, body)...)
	closing := pick(values, "closing")
	if closing == "" {
		closing = "Sincerely,"
	}
	lines = append(lines, line{}, line{text: closing}, line{}, line{text: pick(values, "sender", "from")})
	if title := pick(values, "sender_title", "title"); title != "" {
		lines = append(lines, line{text: title})
	}
	return lines
}

func plainLines(values map[string]string, body string) []line {
	var lines []line
	if title := pick(values, "title", "subject"); title != "" {
		lines = append(lines, line{text: title, bold: true, center: true, halfPts: 26}, line{})
	}
	lines = append(lines, bodyLines(values, body)...)
	return lines
}

func bodyLines(values map[string]string, body string) []line {
	if body == "" {
		body = pick(values, "body", "content")
	}
	var lines []line
	for _, block := range strings.Split(normalizeNewlines(body), "\n") {
		lines = append(lines, line{text: strings.TrimRight(block, " \t")})
	}
	if len(lines) == 0 {
		lines = append(lines, line{})
	}
	return lines
}

func pick(values map[string]string, names ...string) string {
	for _, n := range names {
		if v := values[n]; v != "" {
			return v
		}
	}
	return ""
}

func orToday(date string) string {
	if date != "" {
		return date
	}
	return time.Now().Format("January 2, 2006")
}

func capitalize(s string) string {
	s = strings.ToLower(s)
	r := []rune(s)
	if len(r) > 0 && r[0] >= 'a' && r[0] <= 'z' {
		r[0] = r[0] - 'a' + 'A'
	}
	return string(r)
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}
