package services

import (
	"bytes"
	"html/template"
	"strings"
)

const timestampLayout = "January 2, 2006 at 3:04 PM MST"

var staffNotificationTmpl = template.Must(template.New("staff").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>New Client Inquiry #{{.ID}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
<div style="max-width: 600px; margin: 0 auto;">
  <div style="background: #00cec9; padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">New Client Inquiry #{{.ID}}</h1>
  </div>
  <div style="padding: 20px; background: #f8f9fa;">
    <h2 style="margin-top: 0;">Client Information</h2>
    <table style="width: 100%; border-collapse: collapse;">
      <tr><td style="padding: 8px 0; font-weight: bold;">Name:</td><td>{{.Name}}</td></tr>
      <tr><td style="padding: 8px 0; font-weight: bold;">Email:</td><td><a href="mailto:{{.Email}}">{{.Email}}</a></td></tr>
      {{- if .Phone}}
      <tr><td style="padding: 8px 0; font-weight: bold;">Phone:</td><td>{{.Phone}}</td></tr>
      {{- end}}
      <tr><td style="padding: 8px 0; font-weight: bold;">Subject:</td><td>{{.Subject}}</td></tr>
      <tr><td style="padding: 8px 0; font-weight: bold;">Assigned to:</td><td>{{.AssignedTo}}</td></tr>
      <tr><td style="padding: 8px 0; font-weight: bold;">Inquiry ID:</td><td>#{{.ID}}</td></tr>
    </table>
    <div style="background: white; padding: 15px; border-left: 4px solid #00d4aa; margin-top: 20px;">
      <h3 style="margin-top: 0;">Message:</h3>
      <p style="line-height: 1.6; margin: 0;">{{range $i, $line := .MessageLines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
    </div>
    <div style="background: #e8f5e8; padding: 15px; margin-top: 20px;">
      <p style="margin: 0;"><strong>Reply to:</strong> {{.Email}}</p>
      <p style="margin: 5px 0 0 0;"><strong>Received:</strong> {{.Received}}</p>
      <p style="margin: 5px 0 0 0;"><strong>Reference:</strong> #{{.ID}}</p>
    </div>
  </div>
</div>
</body>
</html>`))

var acknowledgmentTmpl = template.Must(template.New("ack").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Thank You for Contacting Us!</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
<div style="max-width: 600px; margin: 0 auto;">
  <div style="background: #00cec9; padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">Thank You for Contacting Us!</h1>
  </div>
  <div style="padding: 20px; background: #f8f9fa;">
    <p>Hi {{.Name}},</p>
    <p>Thank you for reaching out to Menu Makers! We've received your inquiry and it has been assigned reference number <strong>#{{.ID}}</strong>.</p>
    <div style="background: white; padding: 15px; border-left: 4px solid #17a2b8; margin: 20px 0;">
      <p style="margin: 0 0 10px 0;"><strong>Your inquiry details:</strong></p>
      <p style="margin: 0;"><strong>Reference:</strong> #{{.ID}}</p>
      <p style="margin: 0;"><strong>Subject:</strong> {{.Subject}}</p>
      <p style="margin: 0;"><strong>Assigned to:</strong> {{.AssignedTo}}</p>
      <p style="margin: 10px 0 0 0; font-style: italic;">"{{range $i, $line := .MessageLines}}{{if $i}}<br>{{end}}{{$line}}{{end}}"</p>
    </div>
    <div style="background: #fff3cd; padding: 15px; border-left: 4px solid #ffc107;">
      <p style="margin: 0 0 10px 0;"><strong>What happens next?</strong></p>
      <ul style="margin: 0; padding-left: 20px;">
        <li>We'll review your inquiry within 24-48 hours</li>
        <li>Our team will prepare a detailed response</li>
        <li>You'll receive a follow-up email with next steps</li>
      </ul>
    </div>
    <p>Please save your reference number <strong>#{{.ID}}</strong> for future correspondence.</p>
    <p>Best regards,<br><strong>The Menu Makers Team</strong><br>
    <a href="mailto:{{.CompanyEmail}}">{{.CompanyEmail}}</a></p>
  </div>
</div>
</body>
</html>`))

var replyTmpl = template.Must(template.New("reply").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Message from Menu Makers</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
<div style="max-width: 600px; margin: 0 auto;">
  <div style="background: #00cec9; padding: 20px; text-align: center;">
    <h1 style="color: white; margin: 0;">Message from Menu Makers</h1>
  </div>
  <div style="padding: 20px; background: #f8f9fa;">
    <div style="background: white; padding: 20px; border-left: 4px solid #00d4aa;">
      {{range $i, $line := .MessageLines}}{{if $i}}<br>{{end}}{{$line}}{{end}}
    </div>
    <div style="background: #e8f5e8; padding: 15px; margin-top: 20px;">
      <p style="margin: 0;">
        <strong>From:</strong> Menu Makers Team<br>
        <strong>Sent:</strong> {{.Sent}}<br>
        {{- if .ReferenceID}}
        <strong>Reference:</strong> #{{.ReferenceID}}<br>
        {{- end}}
        <strong>Contact:</strong> <a href="mailto:{{.CompanyEmail}}">{{.CompanyEmail}}</a>
      </p>
    </div>
  </div>
  <div style="text-align: center; padding: 20px; background: #f0f0f0; color: #666; font-size: 12px;">
    <p style="margin: 0;">This email was sent from the Menu Makers admin panel</p>
  </div>
</div>
</body>
</html>`))

type inquiryEmailData struct {
	ID           uint
	Name         string
	Email        string
	Phone        string
	Subject      string
	AssignedTo   string
	MessageLines []string
	Received     string
	CompanyEmail string
}

type replyEmailData struct {
	ReferenceID  uint
	MessageLines []string
	Sent         string
	CompanyEmail string
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func splitLines(s string) []string {
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
