package intake

import (
	"bytes"
	"context"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/finsurv/comms-triage/internal/core"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SMTPIntake is a surveillance tap: it accepts journaled copies of
// corporate mail over SMTP and feeds them into the triage pipeline.
// Mail flow is never blocked or modified; triage runs asynchronously
// after the message is accepted.
type SMTPIntake struct {
	service    *core.TriageService
	logger     *zap.Logger
	listenAddr string
	server     *smtp.Server
}

// NewSMTPIntake creates a new SMTP intake tap
func NewSMTPIntake(service *core.TriageService, logger *zap.Logger, listenAddr string) *SMTPIntake {
	return &SMTPIntake{
		service:    service,
		logger:     logger,
		listenAddr: listenAddr,
	}
}

// Start starts the SMTP intake service
func (f *SMTPIntake) Start() error {
	f.server = smtp.NewServer(&smtpBackend{intake: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP intake starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the SMTP intake service
func (f *SMTPIntake) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessMessage triages a single message and returns its verdict
func (f *SMTPIntake) ProcessMessage(ctx context.Context, msg *core.Message) (*core.Verdict, error) {
	return f.service.Triage(ctx, msg)
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	intake *SMTPIntake
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		intake:     b.intake,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	intake     *SMTPIntake
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// AuthPlain handles PLAIN authentication (not needed for the tap)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data accepts the message and schedules its triage. The tap always
// accepts; a triage failure is recorded downstream, never bounced back
// into the mail stream.
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.intake.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	parsed, err := mail.ReadMessage(bytes.NewReader(rawData))
	if err != nil {
		s.intake.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	msg, err := s.toMessage(parsed)
	if err != nil {
		s.intake.logger.Error("Failed to extract message content", zap.Error(err))
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		verdict, err := s.intake.service.Triage(ctx, msg)
		if err != nil {
			s.intake.logger.Error("Triage failed for intake message",
				zap.String("message_id", msg.ID),
				zap.String("sender", msg.Sender),
				zap.Error(err))
			return
		}
		s.intake.logger.Info("Intake message triaged",
			zap.String("message_id", msg.ID),
			zap.String("sender", msg.Sender),
			zap.String("label", verdict.Label),
			zap.String("source", string(verdict.Source)))
	}()

	return nil
}

// toMessage maps a parsed email onto the triage message model. Sender
// and recipient groups come from the journaling headers when present.
func (s *smtpSession) toMessage(parsed *mail.Message) (*core.Message, error) {
	body, err := extractTextFromMessage(parsed)
	if err != nil {
		return nil, err
	}

	id := strings.Trim(parsed.Header.Get("Message-Id"), "<>")
	if id == "" {
		id = uuid.NewString()
	}

	sender := s.sender
	if from := parsed.Header.Get("From"); from != "" {
		if addrs := addressList(from); len(addrs) > 0 {
			sender = addrs[0]
		}
	}

	recipient := ""
	if len(s.recipients) > 0 {
		recipient = s.recipients[0]
	}

	sentAt := time.Now()
	if date, err := parsed.Header.Date(); err == nil {
		sentAt = date
	}

	return &core.Message{
		ID:             id,
		Sender:         sender,
		Recipient:      recipient,
		CC:             addressList(parsed.Header.Get("Cc")),
		Subject:        decodeEncodedHeader(parsed.Header.Get("Subject")),
		Body:           body,
		SentAt:         sentAt,
		SenderGroup:    parsed.Header.Get("X-Sender-Group"),
		RecipientGroup: parsed.Header.Get("X-Recipient-Group"),
	}, nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
