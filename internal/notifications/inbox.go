package notifications

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
)

const defaultLimit = 20

// Notifier shows a transient message to the shopper behind a cart session.
type Notifier interface {
	Notify(ctx context.Context, session string, severity enums.NotificationSeverity, message string) error
}

// Notification is one queued message.
type Notification struct {
	ID        string                     `json:"id"`
	Severity  enums.NotificationSeverity `json:"severity"`
	Message   string                     `json:"message"`
	CreatedAt time.Time                  `json:"created_at"`
}

// Inbox keeps a bounded queue per session; the oldest message is dropped once the queue is full.
type Inbox struct {
	mu     sync.Mutex
	limit  int
	queues map[string][]Notification
	now    func() time.Time
}

func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Inbox{
		limit:  limit,
		queues: map[string][]Notification{},
		now:    time.Now,
	}
}

func (i *Inbox) Notify(_ context.Context, session string, severity enums.NotificationSeverity, message string) error {
	if strings.TrimSpace(session) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session required")
	}
	if !severity.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid notification severity")
	}

	n := Notification{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		CreatedAt: i.now().UTC(),
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	queue := append(i.queues[session], n)
	if len(queue) > i.limit {
		queue = queue[len(queue)-i.limit:]
	}
	i.queues[session] = queue
	return nil
}

// Drain returns and forgets every queued message for the session, oldest first.
func (i *Inbox) Drain(_ context.Context, session string) []Notification {
	i.mu.Lock()
	defer i.mu.Unlock()
	queue := i.queues[session]
	delete(i.queues, session)
	if queue == nil {
		return []Notification{}
	}
	return queue
}
