package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/servicedeskpro/servicedesk/internal/config"
	"github.com/servicedeskpro/servicedesk/internal/events"
)

// NotificationService handles emitting notifications for domain events.
// Email delivery goes through Sendgrid when an API key is configured;
// otherwise events are only logged.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketUpdated, n.handleTicketUpdated)
	n.dispatcher.Subscribe(events.EventTicketCommentAdded, n.handleCommentAdded)
	n.dispatcher.Subscribe(events.EventSubscriptionActivated, n.handleSubscriptionActivated)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return nil
	}
	subject := fmt.Sprintf("Ticket received: %s", payload.Title)
	body := fmt.Sprintf("Your %s ticket has been created with %s priority. We will get back to you shortly.",
		payload.Category, payload.Priority)
	n.sendEmail(payload.OwnerEmail, subject, body)
	return nil
}

func (n *NotificationService) handleTicketUpdated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketUpdated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleCommentAdded(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCommentAdded", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleSubscriptionActivated(ctx context.Context, event events.Event) error {
	n.logger.Info("SubscriptionActivated", zap.String("user_id", event.UserID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) sendEmail(to, subject, body string) {
	if strings.TrimSpace(n.cfg.SendgridAPIKey) == "" || strings.TrimSpace(to) == "" {
		return
	}
	from := mail.NewEmail("ServiceDesk", n.cfg.EmailFrom)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, body, body)

	client := sendgrid.NewSendClient(n.cfg.SendgridAPIKey)
	resp, err := client.Send(message)
	if err != nil {
		n.logger.Warn("sendgrid send failed", zap.Error(err))
		return
	}
	n.logger.Debug("notification email sent",
		zap.String("to", to),
		zap.Int("status", resp.StatusCode))
}
