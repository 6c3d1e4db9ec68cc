package notify

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

// Типы событий
const (
	BidSubmitted     = "bid_submitted"
	BidAccepted      = "bid_accepted"
	BidRejected      = "bid_rejected"
	ProjectCompleted = "project_completed"
)

// Событие для системы уведомлений. Доставка — забота внешнего
// коллаборатора, движок только формирует события.
type Event struct {
	ID              uuid.UUID `json:"id"`
	RecipientUserID int       `json:"recipientUserId"`
	Type            string    `json:"type"`
	RelatedID       int       `json:"relatedId"`
	CreatedAt       time.Time `json:"createdAt"`
}

// NewEvent создает событие с новым id и текущим временем.
func NewEvent(recipientUserID int, eventType string, relatedID int) Event {
	return Event{
		ID:              uuid.New(),
		RecipientUserID: recipientUserID,
		Type:            eventType,
		RelatedID:       relatedID,
		CreatedAt:       time.Now(),
	}
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// LogNotifier пишет события в лог. Используется, пока нет реальной
// доставки (push/email).
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, e Event) error {
	log.Printf("notify: event=%s recipient=%d related=%d id=%s", e.Type, e.RecipientUserID, e.RelatedID, e.ID)
	return nil
}
