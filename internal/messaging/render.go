package messaging

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"
)

const (
	smsSingleSegment = 160
	smsMultiSegment  = 153
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// Render replaces {{key}} placeholders with vars. Placeholders without a
// value are left in place.
func Render(body string, vars map[string]any) string {
	return placeholder.ReplaceAllStringFunc(body, func(match string) string {
		key := placeholder.FindStringSubmatch(match)[1]
		value, ok := vars[key]
		if !ok || value == nil {
			return match
		}
		return fmt.Sprint(value)
	})
}

// SMSSegments counts the billable segments of an SMS body.
func SMSSegments(text string) int {
	n := len([]rune(text))
	if n <= smsSingleSegment {
		return 1
	}
	return (n + smsMultiSegment - 1) / smsMultiSegment
}

var emailLayout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Store}}</title>
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
<div style="background-color: #f8f9fa; padding: 20px; border-radius: 8px;">
<h1 style="color: #2563eb; margin: 0 0 20px; text-align: center;">{{.Store}}</h1>
<div style="background-color: white; padding: 20px; border-radius: 8px;">
{{range .Paragraphs}}<p style="margin: 10px 0;">{{.}}</p>
{{end}}</div>
<p style="text-align: center; color: #6b7280; font-size: 12px;">&copy; {{.Year}} {{.Store}}</p>
</div>
</body>
</html>`))

// emailHTML wraps a plain text body in the store email layout.
func emailHTML(store, text string, now time.Time) string {
	var buf bytes.Buffer
	err := emailLayout.Execute(&buf, struct {
		Store      string
		Paragraphs []string
		Year       int
	}{Store: store, Paragraphs: strings.Split(text, "\n"), Year: now.Year()})
	if err != nil {
		return ""
	}
	return buf.String()
}
