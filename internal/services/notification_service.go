package services

import (
	"context"
	"encoding/json"
	"log"

	"github.com/dpushkar26/Panchkarma-sutra/internal/models"
	"github.com/dpushkar26/Panchkarma-sutra/internal/repository"
)

const (
	ChannelInApp = "in-app"
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// ChannelSender is a pluggable delivery channel. Implementations must not be
// relied on for correctness: a failed send is logged and dropped.
type ChannelSender interface {
	Channel() string
	Send(ctx context.Context, userID int64, event, title, body string) error
}

// Notifier is the boundary the scheduling core emits through.
type Notifier interface {
	Notify(ctx context.Context, userID int64, event, title, body string, channels []string)
}

type NotificationService struct {
	senders map[string]ChannelSender
}

func NewNotificationService(senders ...ChannelSender) *NotificationService {
	byChannel := make(map[string]ChannelSender, len(senders))
	for _, sender := range senders {
		byChannel[sender.Channel()] = sender
	}
	return &NotificationService{senders: byChannel}
}

// Notify is fire-and-forget: delivery failures never surface to the caller,
// so a booking stays booked even when its confirmation fails to send.
func (s *NotificationService) Notify(
	ctx context.Context,
	userID int64,
	event string,
	title string,
	body string,
	channels []string,
) {
	if len(channels) == 0 {
		channels = []string{ChannelInApp}
	}
	for _, channel := range channels {
		sender, ok := s.senders[channel]
		if !ok {
			log.Printf("notify: no sender for channel %q", channel)
			continue
		}
		if err := sender.Send(ctx, userID, event, title, body); err != nil {
			log.Printf("notify: %s delivery to user %d failed: %v", channel, userID, err)
		}
	}
}

// InAppSender persists notifications for the in-app inbox.
type InAppSender struct {
	repo *repository.NotificationRepository
}

func NewInAppSender(repo *repository.NotificationRepository) *InAppSender {
	return &InAppSender{repo: repo}
}

func (s *InAppSender) Channel() string { return ChannelInApp }

func (s *InAppSender) Send(ctx context.Context, userID int64, event, title, body string) error {
	return s.repo.Create(ctx, &models.Notification{
		UserID: userID,
		Event:  event,
		Title:  title,
		Body:   body,
	})
}

// LogSender stands in for an external email/SMS vendor client.
type LogSender struct {
	channel string
}

func NewLogSender(channel string) *LogSender {
	return &LogSender{channel: channel}
}

func (s *LogSender) Channel() string { return s.channel }

func (s *LogSender) Send(_ context.Context, userID int64, event, title, body string) error {
	payload, err := json.Marshal(map[string]any{
		"user_id": userID,
		"event":   event,
		"title":   title,
		"body":    body,
	})
	if err != nil {
		return err
	}
	log.Printf("notify: [%s] %s", s.channel, payload)
	return nil
}
