package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/fixlab/repair-service/internal/config"
	"github.com/fixlab/repair-service/internal/events"
)

// NotificationService handles emitting notifications for lifecycle events.
// Delivery is fire-and-forget; the engine never waits on it.
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
	n.dispatcher.Subscribe(events.EventRepairCreated, n.handleRepairCreated)
	n.dispatcher.Subscribe(events.EventRepairStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventRepairAssigned, n.handleAssigned)
	n.dispatcher.Subscribe(events.EventWarrantySent, n.handleWarrantySent)
	n.dispatcher.Subscribe(events.EventWarrantyConcluded, n.handleWarrantyConcluded)
	n.dispatcher.Subscribe(events.EventSentToPartner, n.handleSentToPartner)
}

func (n *NotificationService) handleRepairCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("RepairCreated", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailStub(ctx, event)
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("RepairStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("RepairAssigned", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) handleWarrantySent(ctx context.Context, event events.Event) error {
	n.logger.Info("WarrantySent", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailStub(ctx, event)
	return nil
}

func (n *NotificationService) handleWarrantyConcluded(ctx context.Context, event events.Event) error {
	n.logger.Info("WarrantyConcluded", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendEmailStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSentToPartner(ctx context.Context, event events.Event) error {
	n.logger.Info("SentToPartner", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	n.sendWebhookStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
