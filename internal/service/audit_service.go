package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/glpi-bridge/internal/config"
	"github.com/spec-kit/glpi-bridge/internal/events"
)

// AuditService records every agent action as a structured log line and,
// when configured, announces it to a webhook endpoint.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotifyConfig
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotifyConfig) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to agent events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventActionPlanned, a.handleActionPlanned)
	a.dispatcher.Subscribe(events.EventActionExecuted, a.handleActionExecuted)
	a.dispatcher.Subscribe(events.EventActionFailed, a.handleActionFailed)
	a.dispatcher.Subscribe(events.EventSessionRenewed, a.handleSessionRenewed)
}

func (a *AuditService) handleSessionRenewed(ctx context.Context, event events.Event) error {
	a.logger.Info("SessionRenewed", zap.String("event_id", event.ID))
	return nil
}

func (a *AuditService) handleActionPlanned(ctx context.Context, event events.Event) error {
	a.logger.Info("ActionPlanned",
		zap.Int("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	return nil
}

func (a *AuditService) handleActionExecuted(ctx context.Context, event events.Event) error {
	a.logger.Info("ActionExecuted",
		zap.Int("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	a.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (a *AuditService) handleActionFailed(ctx context.Context, event events.Event) error {
	a.logger.Warn("ActionFailed",
		zap.Int("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	a.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (a *AuditService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(a.cfg.WebhookURL) == "" {
		return
	}
	a.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", a.cfg.WebhookURL),
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)))
}
