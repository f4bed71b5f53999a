package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Dispatcher renders a template and fans it out to every configured
// channel the recipient has an address for.
type Dispatcher struct {
	templates *TemplateEngine
	log       *LogSender
	email     EmailSender
	sms       SMSSender
	chat      ChatSender
	logger    zerolog.Logger
	now       func() time.Time
}

type Option func(*Dispatcher)

func WithEmail(s EmailSender) Option { return func(d *Dispatcher) { d.email = s } }
func WithSMS(s SMSSender) Option     { return func(d *Dispatcher) { d.sms = s } }
func WithChat(s ChatSender) Option   { return func(d *Dispatcher) { d.chat = s } }

func NewDispatcher(templates *TemplateEngine, logger zerolog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		templates: templates,
		log:       NewLogSender(logger),
		logger:    logger,
		now:       time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Channels lists the active channels, log first.
func (d *Dispatcher) Channels() []Channel {
	out := []Channel{ChannelLog}
	if d.email != nil {
		out = append(out, ChannelEmail)
	}
	if d.sms != nil {
		out = append(out, ChannelSMS)
	}
	if d.chat != nil {
		out = append(out, ChannelWebhook)
	}
	return out
}

// Dispatch sends the rendered template on every channel. Every channel is
// attempted; the first delivery error is returned along with the per-channel
// records.
func (d *Dispatcher) Dispatch(ctx context.Context, templateID string, data map[string]string, to Recipient, attachments ...Attachment) ([]*Notification, error) {
	msg, err := d.templates.Render(templateID, data)
	if err != nil {
		return nil, err
	}

	var (
		sent     []*Notification
		firstErr error
	)
	record := func(ch Channel, recipient, body string, send func() error) {
		n := &Notification{
			ID:        uuid.NewString(),
			Channel:   ch,
			Recipient: recipient,
			Subject:   msg.Subject,
			Body:      body,
		}
		if ch == ChannelEmail || ch == ChannelLog {
			n.Attachments = attachments
		}
		if err := send(); err != nil {
			n.Status = StatusFailed
			n.Error = err.Error()
			d.logger.Warn().Err(err).Str("channel", string(ch)).Str("recipient", recipient).Msg("notification delivery failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", ch, err)
			}
		} else {
			at := d.now().UTC()
			n.Status = StatusSent
			n.SentAt = &at
		}
		sent = append(sent, n)
	}

	logRecipient := to.Email
	if logRecipient == "" {
		logRecipient = to.Name
	}
	logged := &Notification{ID: uuid.NewString(), Recipient: logRecipient, Subject: msg.Subject, Attachments: attachments}
	record(ChannelLog, logRecipient, msg.Body, func() error { return d.log.Send(ctx, logged) })

	if d.email != nil && to.Email != "" {
		record(ChannelEmail, to.Email, msg.Body, func() error {
			return d.email.SendEmail(ctx, to.Email, msg.Subject, msg.Body, attachments...)
		})
	}
	if d.sms != nil && to.Phone != "" {
		record(ChannelSMS, to.Phone, msg.Short, func() error {
			return d.sms.SendSMS(ctx, to.Phone, msg.Short)
		})
	}
	if d.chat != nil {
		record(ChannelWebhook, "", msg.Short, func() error {
			return d.chat.SendChat(ctx, msg.Short)
		})
	}

	return sent, firstErr
}
