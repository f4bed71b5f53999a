package notification

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-gomail/gomail"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// ---------------------------------------------------------------------------
// LogSender
// ---------------------------------------------------------------------------

// LogSender writes every notification to the service log. It is always
// configured so that delivery is observable without external providers.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger.With().Str("component", "notification").Logger()}
}

func (s *LogSender) Send(_ context.Context, n *Notification) error {
	s.logger.Info().
		Str("notification_id", n.ID).
		Str("recipient", n.Recipient).
		Str("subject", n.Subject).
		Int("attachments", len(n.Attachments)).
		Msg("notification")
	return nil
}

// ---------------------------------------------------------------------------
// SMTPSender
// ---------------------------------------------------------------------------

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPConfig holds SMTP server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers email through an SMTP relay.
type SMTPSender struct {
	dialer mailDialer
	from   string
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) SendEmail(ctx context.Context, to, subject, body string, attachments ...Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	for _, a := range attachments {
		data := a.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{
				"Content-Type": {a.ContentType},
			}))
		}
		m.Attach(a.Name, settings...)
	}

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// TwilioSender
// ---------------------------------------------------------------------------

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSender delivers SMS through the Twilio REST API.
type TwilioSender struct {
	api  messageCreator
	from string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{api: client.Api, from: from}
}

func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.api.CreateMessage(params); err != nil {
		return fmt.Errorf("send sms to %s: %w", to, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// WebhookSender
// ---------------------------------------------------------------------------

// WebhookSender posts {"text": ...} to a chat incoming-webhook URL.
type WebhookSender struct {
	client *resty.Client
	url    string
}

func NewWebhookSender(url string) *WebhookSender {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json")
	return &WebhookSender{client: client, url: url}
}

func (s *WebhookSender) SendChat(ctx context.Context, text string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"text": text}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("post webhook: status %d", resp.StatusCode())
	}
	return nil
}
