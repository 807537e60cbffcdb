// Package templates provides the notification email markup
package templates

import (
	"bytes"
	"html/template"
	"log"
)

type EmailLayoutProps struct {
	Preheader  string
	Content    string
	FooterText string
}

type emailTemplateData struct {
	Preheader  string
	Content    template.HTML
	FooterText string
}

var emailLayoutTemplate = template.Must(template.New("emailLayout").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta http-equiv="Content-Type" content="text/html; charset=UTF-8">
    <title>Form submission</title>
  </head>
  <body style="font-family: Helvetica, sans-serif; font-size: 16px; line-height: 1.3; background-color: #f4f5f6; margin: 0; padding: 0;">
    <span class="preheader" style="color: transparent; display: none; height: 0; max-height: 0; overflow: hidden; visibility: hidden;">{{.Preheader}}</span>
    <div style="max-width: 600px; margin: 0 auto; padding-top: 24px;">
      <div style="background: #ffffff; border: 1px solid #eaebed; border-radius: 16px; padding: 24px;">
        {{.Content}}
      </div>
      <p style="color: #9a9ea6; font-size: 14px; text-align: center;">{{.FooterText}}</p>
    </div>
  </body>
</html>`))

// GetEmailLayout wraps trusted content markup in the shared layout.
func GetEmailLayout(props EmailLayoutProps) string {
	footerText := props.FooterText
	if footerText == "" {
		footerText = "Sent by styletree"
	}

	var buf bytes.Buffer
	if err := emailLayoutTemplate.Execute(&buf, emailTemplateData{
		Preheader:  props.Preheader,
		Content:    template.HTML(props.Content),
		FooterText: footerText,
	}); err != nil {
		log.Printf("Error executing email layout template: %v", err)
		return "<html><body>Template execution error</body></html>"
	}
	return buf.String()
}
