// Package notify creates user notifications and pushes them to the
// recipient's live connections. Failures are logged and never reach the
// action that triggered the notification.
package notify

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/sphere-social/sphere/internal/events"
	"github.com/sphere-social/sphere/internal/metrics"
	"github.com/sphere-social/sphere/internal/models"
	"github.com/sphere-social/sphere/internal/realtime"
)

type Store interface {
	Create(ctx context.Context, n *models.Notification) error
	Load(ctx context.Context, id uint) (*models.Notification, error)
	CreateWelcome(ctx context.Context, userID uint) (*models.Notification, error)
}

type PostFinder interface {
	FindByID(ctx context.Context, id uint) (*models.Post, error)
}

// Context carries the optional references of a notification.
type Context struct {
	SenderID *uint
	PostID   *uint
}

type Emitter struct {
	store     Store
	posts     PostFinder
	push      realtime.Broadcaster
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *slog.Logger
}

func NewEmitter(store Store, posts PostFinder, push realtime.Broadcaster, publisher events.Publisher, m *metrics.Metrics, log *slog.Logger) *Emitter {
	if publisher == nil {
		publisher = events.Nop{}
	}

	return &Emitter{
		store:     store,
		posts:     posts,
		push:      push,
		publisher: publisher,
		metrics:   m,
		log:       log,
	}
}

// Emit stores a notification for recipientID and delivers it. It returns
// nil when nothing was created.
func (e *Emitter) Emit(ctx context.Context, recipientID uint, kind models.NotificationType, c Context) *models.Notification {
	if recipientID == 0 || !kind.Valid() {
		e.log.Warn("refusing to emit notification", "recipient", recipientID, "type", kind)
		return nil
	}

	n := &models.Notification{
		RecipientID: recipientID,
		SenderID:    c.SenderID,
		PostID:      c.PostID,
		Type:        kind,
	}

	if err := e.store.Create(ctx, n); err != nil {
		e.log.Error("failed to create notification", "recipient", recipientID, "type", kind, "error", err)
		return nil
	}

	return e.deliver(ctx, n)
}

// Welcome greets a user on their first login only.
func (e *Emitter) Welcome(ctx context.Context, userID uint) *models.Notification {
	n, err := e.store.CreateWelcome(ctx, userID)
	if err != nil {
		e.log.Error("failed to create welcome notification", "user_id", userID, "error", err)
		return nil
	}
	if n == nil {
		return nil
	}

	return e.deliver(ctx, n)
}

// Like notifies the author of postID that likerID liked it. Liking your own
// post notifies nobody.
func (e *Emitter) Like(ctx context.Context, postID, likerID uint) *models.Notification {
	post, err := e.posts.FindByID(ctx, postID)
	if err != nil {
		e.log.Error("failed to load liked post", "post_id", postID, "error", err)
		return nil
	}

	if post.UserID == likerID {
		return nil
	}

	return e.Emit(ctx, post.UserID, models.NotificationLike, Context{SenderID: &likerID, PostID: &postID})
}

func (e *Emitter) Follow(ctx context.Context, followedID, followerID uint) *models.Notification {
	if followedID == followerID {
		return nil
	}

	return e.Emit(ctx, followedID, models.NotificationFollow, Context{SenderID: &followerID})
}

func (e *Emitter) deliver(ctx context.Context, n *models.Notification) *models.Notification {
	e.metrics.NotificationCreated(string(n.Type))

	populated, err := e.store.Load(ctx, n.ID)
	if err != nil {
		e.log.Warn("failed to load notification for delivery", "notification_id", n.ID, "error", err)
		populated = n
	}

	evt := realtime.Event{Type: realtime.EventNewNotification, Data: populated}
	if err := e.push.Emit(ctx, evt, populated.RecipientID); err != nil {
		e.log.Warn("failed to push notification", "notification_id", n.ID, "error", err)
	}

	key := strconv.FormatUint(uint64(populated.RecipientID), 10)
	if err := e.publisher.Publish(ctx, key, events.New(events.NotificationCreated, populated)); err != nil {
		e.log.Warn("failed to publish notification event", "notification_id", n.ID, "error", err)
	}

	return populated
}
