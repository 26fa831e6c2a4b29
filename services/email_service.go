package services

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"

	"github.com/Dosada05/swiss-tournaments/config"
	"github.com/Dosada05/swiss-tournaments/models"
)

var guestRegistrationTemplate = template.Must(template.New("guest_registration").Parse(`
<p>Hi {{.Name}},</p>
<p>You are registered for <b>{{.TournamentName}}</b>.</p>
<p>If you did not sign up, or you can no longer attend, cancel your
registration with this single-use link:</p>
<p><a href="{{.CancelURL}}">{{.CancelURL}}</a></p>
`))

// EmailService sends transactional mail over SMTP. It implements
// GuestNotifier for guest registration confirmations.
type EmailService struct {
	cfg    *config.Config
	logger *slog.Logger
}

func NewEmailService(cfg *config.Config, logger *slog.Logger) *EmailService {
	return &EmailService{cfg: cfg, logger: logger}
}

// SendGuestRegistration delivers the cancellation link in the background so
// registration never waits on the mail server.
func (s *EmailService) SendGuestRegistration(tournament *models.Tournament, participant *models.Participant, token string) {
	if participant.GuestEmail == nil {
		return
	}
	to := *participant.GuestEmail

	var body bytes.Buffer
	err := guestRegistrationTemplate.Execute(&body, struct {
		Name           string
		TournamentName string
		CancelURL      string
	}{
		Name:           participant.DisplayName(),
		TournamentName: tournament.Name,
		CancelURL:      fmt.Sprintf("%s/registrations/cancel?token=%s", s.cfg.AppBaseURL, token),
	})
	if err != nil {
		s.logger.Error("failed to render guest registration email", slog.Any("error", err))
		return
	}

	go func() {
		subject := fmt.Sprintf("Registration for %s", tournament.Name)
		if err := s.SendEmail([]string{to}, subject, body.String()); err != nil {
			s.logger.Error("failed to send guest registration email",
				slog.String("participant_id", participant.ID.String()),
				slog.Any("error", err))
		}
	}()
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP is not configured")
	}

	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	tlsconfig := &tls.Config{ServerName: s.cfg.SMTPHost}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Implicit TLS.
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("TLS connection failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		// STARTTLS, usually port 587.
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("SMTP connection failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("STARTTLS failed: %w", err)
		}
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth failed: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("SMTP MAIL command failed: %w", err)
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("SMTP RCPT command failed: %w", err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish email body: %w", err)
	}
	return client.Quit()
}
