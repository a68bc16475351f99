// Package email sends the applicant decision emails.
//
// When staff accept or reject an application on the applicants page, the
// applicant gets a short email with the decision. Sending goes through Resend
// (https://resend.com); without RESEND_API_KEY the console uses NopSender and
// decisions are only recorded in the backend.
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/resend/resend-go/v3"
)

// Decision is the outcome the email announces.
type Decision string

const (
	DecisionAccepted Decision = "Accepted"
	DecisionRejected Decision = "Rejected"
)

// DecisionEmail holds everything the template needs.
type DecisionEmail struct {
	To        string
	Applicant string
	JobTitle  string
	Decision  Decision
}

// Sender is the abstraction the applicant service depends on.
type Sender interface {
	SendDecision(ctx context.Context, msg DecisionEmail) error
}

type resendSender struct {
	client    *resend.Client
	fromEmail string
	siteName  string
}

// NewResendSender creates a Resend-backed Sender.
//
// fromEmail must belong to a domain verified in Resend (e.g. careers@orrelng.com).
func NewResendSender(apiKey, fromEmail, siteName string) Sender {
	return &resendSender{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		siteName:  siteName,
	}
}

var decisionTemplate = template.Must(template.New("decision").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background-color:#f5f5f5;font-family:Arial,Helvetica,sans-serif;">
  <table width="100%" cellpadding="0" cellspacing="0" style="padding:40px 0;">
    <tr>
      <td align="center">
        <table width="480" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:8px;padding:40px;">
          <tr>
            <td>
              <h1 style="color:#111827;font-size:22px;margin:0 0 16px 0;">{{.Site}}</h1>
              <p style="color:#374151;font-size:15px;line-height:1.6;">Dear {{.Applicant}},</p>
              {{if .Accepted}}
              <p style="color:#374151;font-size:15px;line-height:1.6;">
                We are happy to let you know that your application for <strong>{{.JobTitle}}</strong> has been accepted.
                Our team will contact you shortly with the next steps.
              </p>
              {{else}}
              <p style="color:#374151;font-size:15px;line-height:1.6;">
                Thank you for applying for <strong>{{.JobTitle}}</strong>. After careful review we will not be moving
                forward with your application at this time.
              </p>
              {{end}}
              <p style="color:#6b7280;font-size:13px;line-height:1.6;margin-top:24px;">The {{.Site}} hiring team</p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`))

// SendDecision renders and sends the decision email.
func (s *resendSender) SendDecision(ctx context.Context, msg DecisionEmail) error {
	subject, err := renderSubject(s.siteName, msg)
	if err != nil {
		return err
	}

	var body bytes.Buffer
	if err := decisionTemplate.Execute(&body, map[string]any{
		"Site":      s.siteName,
		"Applicant": msg.Applicant,
		"JobTitle":  msg.JobTitle,
		"Accepted":  msg.Decision == DecisionAccepted,
	}); err != nil {
		return fmt.Errorf("failed to render decision email: %w", err)
	}

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", s.siteName, s.fromEmail),
		To:      []string{msg.To},
		Subject: subject,
		Html:    body.String(),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send decision email: %w", err)
	}

	return nil
}

func renderSubject(site string, msg DecisionEmail) (string, error) {
	switch msg.Decision {
	case DecisionAccepted:
		return fmt.Sprintf("Your application for %s — %s", msg.JobTitle, site), nil
	case DecisionRejected:
		return fmt.Sprintf("Update on your application for %s — %s", msg.JobTitle, site), nil
	default:
		return "", fmt.Errorf("no email for decision %q", msg.Decision)
	}
}

// NopSender drops every email. Used when Resend is not configured.
type NopSender struct{}

func (NopSender) SendDecision(context.Context, DecisionEmail) error { return nil }
