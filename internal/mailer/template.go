package mailer

import (
	"html/template"
	"strings"
)

var notificationTmpl = template.Must(template.New("enquiry").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
  <div style="background: #2d6a4f; color: #fff; padding: 16px 24px;">
    <h2 style="margin: 0;">New Product Enquiry</h2>
  </div>
  <div style="padding: 24px; border: 1px solid #ddd; border-top: none;">
    <table cellpadding="6" cellspacing="0" style="width: 100%;">
      <tr><td style="font-weight: bold; width: 120px;">Name</td><td>{{.Name}}</td></tr>
      <tr><td style="font-weight: bold;">Email</td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
{{- if .Company}}
      <tr><td style="font-weight: bold;">Company</td><td>{{.Company}}</td></tr>
{{- end}}
{{- if .Phone}}
      <tr><td style="font-weight: bold;">Phone</td><td>{{.Phone}}</td></tr>
{{- end}}
{{- if .ProductName}}
      <tr><td style="font-weight: bold;">Product</td><td>{{.ProductName}}</td></tr>
{{- end}}
    </table>
    <h3 style="margin-bottom: 8px;">Message</h3>
    <p style="white-space: pre-wrap; background: #f6f6f6; padding: 12px; border-radius: 4px;">{{.Message}}</p>
  </div>
  <p style="color: #888; font-size: 12px; padding: 8px 24px;">Enquiry #{{.EnquiryID}} via the website contact form.</p>
</body>
</html>
`))

// renderNotification renders the enquiry notification email body.
func renderNotification(n Notification) (string, error) {
	var sb strings.Builder
	if err := notificationTmpl.Execute(&sb, n); err != nil {
		return "", err
	}
	return sb.String(), nil
}
