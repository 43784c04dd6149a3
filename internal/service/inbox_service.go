package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/noid254/nikosoko/internal/domain"
	"github.com/noid254/nikosoko/internal/repo"
	"github.com/noid254/nikosoko/internal/session"
	"github.com/noid254/nikosoko/pkg/events"
	"github.com/noid254/nikosoko/pkg/logger"
)

const (
	broadcastSender  = "Niko Soko Admin"
	broadcastSubject = "Admin Broadcast"
	inboxQueue       = "inbox"
)

type InboxService interface {
	List(ctx context.Context, sid string) ([]domain.InboxMessage, error)
	Open(ctx context.Context, sid string, id int64) (domain.InboxMessage, error)
	Deliver(ctx context.Context, m domain.InboxMessage) (domain.InboxMessage, error)
}

type inboxService struct {
	sessions session.Store
	inbox    repo.InboxRepository
	now      Clock
}

func NewInboxService(sessions session.Store, inbox repo.InboxRepository) InboxService {
	return &inboxService{sessions: sessions, inbox: inbox, now: time.Now}
}

// List returns platform messages newest first with the session's read marks.
func (s *inboxService) List(ctx context.Context, sid string) ([]domain.InboxMessage, error) {
	sess, err := s.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := requireLogin(sess); err != nil {
		return nil, err
	}
	msgs, err := s.inbox.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list inbox: %w", err)
	}
	for i := range msgs {
		msgs[i].IsRead = msgs[i].IsRead || sess.ReadInbox[msgs[i].ID]
	}
	return msgs, nil
}

func (s *inboxService) Open(ctx context.Context, sid string, id int64) (domain.InboxMessage, error) {
	m, err := s.inbox.Get(ctx, id)
	if err != nil {
		return domain.InboxMessage{}, err
	}
	_, err = s.sessions.Update(ctx, sid, func(sess *session.Session) error {
		if err := requireLogin(sess); err != nil {
			return err
		}
		if sess.ReadInbox == nil {
			sess.ReadInbox = map[int64]bool{}
		}
		sess.ReadInbox[id] = true
		return nil
	})
	if err != nil {
		return domain.InboxMessage{}, err
	}
	m.IsRead = true
	return m, nil
}

func (s *inboxService) Deliver(ctx context.Context, m domain.InboxMessage) (domain.InboxMessage, error) {
	if m.Timestamp.IsZero() {
		m.Timestamp = s.now().UTC()
	}
	m.IsRead = false
	return s.inbox.Add(ctx, m)
}

// SubscribeBroadcasts turns admin broadcasts into inbox messages. The queue
// group keeps one delivery per broadcast across replicas.
func SubscribeBroadcasts(sub events.Subscriber, inbox InboxService) error {
	return sub.QueueSubscribe(events.AdminBroadcast, inboxQueue, func(msg *events.Message) {
		ctx := context.Background()
		var b events.BroadcastEvent
		if err := json.Unmarshal(msg.Data, &b); err != nil {
			logger.ErrorContext(ctx, "Failed to decode broadcast", "error", err, "event_id", msg.ID)
			return
		}
		if _, err := inbox.Deliver(ctx, domain.InboxMessage{
			From:      broadcastSender,
			Subject:   broadcastSubject,
			Body:      b.Message,
			Timestamp: b.SentAt,
		}); err != nil {
			logger.ErrorContext(ctx, "Failed to deliver broadcast", "error", err, "event_id", msg.ID)
		}
	})
}
