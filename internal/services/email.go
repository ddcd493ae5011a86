package services

import (
	"fmt"
	"html"
	"net/smtp"
	"strings"

	"studymate-backend/internal/logger"
)

// InviteMailer sends study-group invitations.
type InviteMailer interface {
	SendGroupInvite(to, groupName, groupID, inviterName string) error
}

type EmailOptions struct {
	Host        string
	Port        string
	User        string
	Pass        string
	From        string
	FrontendURL string
}

type EmailService struct {
	opts    EmailOptions
	devMode bool
	log     *logger.Logger
}

func NewEmailService(opts EmailOptions, log *logger.Logger) *EmailService {
	s := &EmailService{
		opts:    opts,
		devMode: opts.Host == "" || opts.User == "",
		log:     log.With("service", "email"),
	}
	if s.devMode {
		s.log.Warn("email service running in dev mode, messages are only logged")
	}
	return s
}

func (s *EmailService) SendGroupInvite(to, groupName, groupID, inviterName string) error {
	joinURL := fmt.Sprintf("%s/groups/%s", s.opts.FrontendURL, groupID)
	if inviterName == "" {
		inviterName = "A classmate"
	}

	subject := fmt.Sprintf("You're invited to join %s on StudyMate", groupName)
	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Arial, sans-serif; margin: 0; padding: 0; background-color: #f8fafc;">
  <div style="max-width: 480px; margin: 40px auto; background: white; border-radius: 12px; overflow: hidden;">
    <div style="background: #0f766e; padding: 32px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 24px;">StudyMate</h1>
    </div>
    <div style="padding: 32px;">
      <h2 style="margin: 0 0 16px; font-size: 20px; color: #1e293b;">Join %s</h2>
      <p style="color: #64748b; font-size: 14px; line-height: 1.6; margin: 0 0 24px;">
        %s invited you to study together. Generated chapters and chat are shared with every member.
      </p>
      <a href="%s" style="display: inline-block; background: #0f766e; color: white; text-decoration: none; padding: 12px 32px; border-radius: 8px; font-weight: 600;">
        Open group
      </a>
    </div>
  </div>
</body>
</html>`, html.EscapeString(groupName), html.EscapeString(inviterName), joinURL)

	return s.sendHTML(to, subject, body)
}

func (s *EmailService) sendHTML(to, subject, htmlBody string) error {
	if s.devMode {
		s.log.Info("dev email", "to", to, "subject", subject)
		s.log.Debug("dev email body", "body", htmlBody)
		return nil
	}

	headers := []string{
		fmt.Sprintf("From: %s", s.opts.From),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	message := strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody

	auth := smtp.PlainAuth("", s.opts.User, s.opts.Pass, s.opts.Host)
	addr := fmt.Sprintf("%s:%s", s.opts.Host, s.opts.Port)

	if err := smtp.SendMail(addr, auth, s.opts.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.Info("email sent", "subject", subject)
	return nil
}
