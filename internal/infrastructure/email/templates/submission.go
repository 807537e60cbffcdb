package templates

import (
	"bytes"
	"html/template"
	"log"
	"sort"
	"strings"
)

// SubmissionEmailProps describes one accepted submission.
type SubmissionEmailProps struct {
	PageTitle    string
	SubmissionID string
	RecordID     string
	Values       map[string][]string
	// Redacted names fields whose values must not leave the server.
	Redacted map[string]bool
}

type submissionRow struct {
	Name  string
	Value string
}

var submissionTemplate = template.Must(template.New("submission").Parse(`
<h1 style="font-size: 20px; margin: 0 0 16px;">New submission on {{.PageTitle}}</h1>
<p style="color: #6b7280; margin: 0 0 16px;">Submission {{.SubmissionID}}{{if .RecordID}} for record {{.RecordID}}{{end}}</p>
<table role="presentation" style="border-collapse: collapse; width: 100%;">
{{- range .Rows}}
  <tr>
    <th style="text-align: left; padding: 6px 8px; border-bottom: 1px solid #eaebed; vertical-align: top;">{{.Name}}</th>
    <td style="padding: 6px 8px; border-bottom: 1px solid #eaebed; white-space: pre-wrap;">{{.Value}}</td>
  </tr>
{{- end}}
</table>`))

// GetSubmissionEmailContent renders the submission table, fields in name
// order. Internal fields starting with an underscore are omitted.
func GetSubmissionEmailContent(props SubmissionEmailProps) string {
	names := make([]string, 0, len(props.Values))
	for name := range props.Values {
		if strings.HasPrefix(name, "_") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]submissionRow, 0, len(names))
	for _, name := range names {
		value := strings.Join(props.Values[name], ", ")
		if props.Redacted[name] {
			value = "(hidden)"
		}
		rows = append(rows, submissionRow{Name: name, Value: value})
	}

	var buf bytes.Buffer
	err := submissionTemplate.Execute(&buf, struct {
		SubmissionEmailProps
		Rows []submissionRow
	}{props, rows})
	if err != nil {
		log.Printf("Error executing submission email template: %v", err)
		return ""
	}
	return buf.String()
}
