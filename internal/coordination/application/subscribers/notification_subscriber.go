// Package subscribers contains event consumers for the coordination context.
package subscribers

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/moyeolab/moyeo/internal/coordination/domain"
	"github.com/moyeolab/moyeo/internal/shared/infrastructure/eventbus"
)

// NotificationSubscriber reacts to coordination events and pushes member
// notifications through the configured notifier.
type NotificationSubscriber struct {
	notifier Notifier
	logger   *slog.Logger
}

// Notifier delivers a short text notification to every member of a room.
type Notifier interface {
	NotifyRoom(ctx context.Context, roomID string, text string) error
}

// LogNotifier writes notifications to the log. Used when no push channel is
// configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) NotifyRoom(_ context.Context, roomID string, text string) error {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("room notification", "room_id", roomID, "text", text)
	return nil
}

// NewNotificationSubscriber creates a new NotificationSubscriber.
func NewNotificationSubscriber(notifier Notifier, logger *slog.Logger) *NotificationSubscriber {
	if logger == nil {
		logger = slog.Default()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &NotificationSubscriber{notifier: notifier, logger: logger}
}

// EventTypes returns the routing keys this subscriber handles.
func (s *NotificationSubscriber) EventTypes() []string {
	return []string{
		domain.ScheduleUpdatedKey,
		domain.RequestCreatedKey,
		domain.RequestResolvedKey,
		domain.RoomConfirmedKey,
	}
}

// Handle processes a coordination event.
func (s *NotificationSubscriber) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	text := notificationText(event)
	if text == "" {
		return nil
	}
	if err := s.notifier.NotifyRoom(ctx, event.AggregateID.String(), text); err != nil {
		s.logger.Error("failed to notify room",
			"room_id", event.AggregateID,
			"routing_key", event.RoutingKey,
			"error", err,
		)
		return err
	}
	return nil
}

func notificationText(event *eventbus.ConsumedEvent) string {
	switch event.RoutingKey {
	case domain.ScheduleUpdatedKey:
		var payload struct {
			Trigger string `json:"trigger"`
		}
		_ = json.Unmarshal(event.Payload, &payload)
		if payload.Trigger == "exchange" {
			return "수업 시간이 변경되었습니다."
		}
		return "주간 일정이 업데이트되었습니다."
	case domain.RequestCreatedKey:
		return "새로운 양보 요청이 도착했습니다."
	case domain.RequestResolvedKey:
		var payload struct {
			Resolution string `json:"resolution"`
		}
		_ = json.Unmarshal(event.Payload, &payload)
		switch payload.Resolution {
		case string(domain.RequestApproved):
			return "양보 요청이 승인되었습니다."
		case string(domain.RequestRejected):
			return "양보 요청이 거절되었습니다."
		default:
			return "양보 요청이 처리되었습니다."
		}
	case domain.RoomConfirmedKey:
		return "주간 일정이 확정되었습니다."
	default:
		return ""
	}
}
