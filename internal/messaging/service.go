// Package messaging persists direct messages and relays them, and their
// read receipts, to the live connections of both parties.
package messaging

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sphere-social/sphere/internal/errs"
	"github.com/sphere-social/sphere/internal/events"
	"github.com/sphere-social/sphere/internal/metrics"
	"github.com/sphere-social/sphere/internal/models"
	"github.com/sphere-social/sphere/internal/realtime"
	"github.com/sphere-social/sphere/internal/types"
)

const DefaultMaxLength = 5000

type Store interface {
	Create(ctx context.Context, msg *models.Message) error
	MarkRead(ctx context.Context, senderID, receiverID uint) (int64, error)
	UnreadCounts(ctx context.Context, receiverID uint) ([]types.UnreadCount, error)
	UnreadCount(ctx context.Context, receiverID, senderID uint) (int64, error)
	History(ctx context.Context, userID, counterpartID uint) ([]models.Message, error)
	Partners(ctx context.Context, userID uint) ([]types.ConversationPartner, error)
}

type Limiter interface {
	Allow(ctx context.Context, userID uint) (bool, int64, error)
}

type Options struct {
	MaxLength int
	// Limiter is optional; sends are unlimited without one.
	Limiter   Limiter
	Publisher events.Publisher
	Metrics   *metrics.Metrics
}

type Service struct {
	store     Store
	push      realtime.Broadcaster
	limiter   Limiter
	publisher events.Publisher
	metrics   *metrics.Metrics
	maxLength int
	log       *slog.Logger
	now       func() time.Time
}

func NewService(store Store, push realtime.Broadcaster, log *slog.Logger, opts Options) *Service {
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}

	return &Service{
		store:     store,
		push:      push,
		limiter:   opts.Limiter,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		maxLength: opts.MaxLength,
		log:       log,
		now:       time.Now,
	}
}

// Send stores a message from senderID to receiverID and pushes it to both
// users' rooms. The receiver is not required to exist.
func (s *Service) Send(ctx context.Context, senderID, receiverID uint, content string) (*models.Message, error) {
	if err := s.validate(senderID, receiverID, content); err != nil {
		return nil, err
	}

	if s.limiter != nil {
		ok, count, err := s.limiter.Allow(ctx, senderID)
		switch {
		case err != nil:
			s.log.Warn("send rate limiter unavailable", "sender", senderID, "error", err)
		case !ok:
			s.metrics.RateLimited()
			s.log.Info("send rate limited", "sender", senderID, "count", count)
			return nil, errs.ErrRateLimited
		}
	}

	msg := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  s.now().UTC(),
	}

	if err := s.store.Create(ctx, msg); err != nil {
		s.log.Error("failed to save message", "sender", senderID, "receiver", receiverID, "error", err)
		return nil, err
	}

	s.metrics.MessageSent()

	s.emit(ctx, realtime.Event{Type: realtime.EventReceiveMessage, Data: msg}, receiverID, senderID)
	s.publish(ctx, receiverID, events.New(events.MessageCreated, msg))

	return msg, nil
}

func (s *Service) validate(senderID, receiverID uint, content string) error {
	if senderID == 0 {
		return errs.ErrUnauthenticated
	}
	if receiverID == 0 {
		return errs.Validation("receiver is required")
	}
	if receiverID == senderID {
		return errs.Validation("cannot send a message to yourself")
	}
	if strings.TrimSpace(content) == "" {
		return errs.Validation("content is required")
	}
	if n := utf8.RuneCountInString(content); n > s.maxLength {
		return errs.Validation("content exceeds %d characters", s.maxLength)
	}
	return nil
}

// MarkRead marks every unread message from senderID to receiverID as read
// and tells both users. Nothing left to mark is still a success.
func (s *Service) MarkRead(ctx context.Context, senderID, receiverID uint) error {
	if receiverID == 0 {
		return errs.ErrUnauthenticated
	}
	if senderID == 0 {
		return errs.Validation("sender is required")
	}

	changed, err := s.store.MarkRead(ctx, senderID, receiverID)
	if err != nil {
		s.log.Error("failed to mark messages read", "sender", senderID, "receiver", receiverID, "error", err)
		return err
	}

	s.metrics.ReadReceipt()
	s.log.Debug("messages marked read", "sender", senderID, "receiver", receiverID, "changed", changed)

	receipt := types.ReadReceipt{Sender: senderID, Receiver: receiverID}
	s.emit(ctx, realtime.Event{Type: realtime.EventMessageRead, Data: receipt}, senderID, receiverID)
	s.publish(ctx, receiverID, events.New(events.MessagesRead, receipt))

	return nil
}

func (s *Service) UnreadCounts(ctx context.Context, userID uint) ([]types.UnreadCount, error) {
	return s.store.UnreadCounts(ctx, userID)
}

func (s *Service) UnreadCount(ctx context.Context, userID, senderID uint) (int64, error) {
	return s.store.UnreadCount(ctx, userID, senderID)
}

func (s *Service) History(ctx context.Context, userID, counterpartID uint) ([]models.Message, error) {
	if counterpartID == 0 {
		return nil, errs.Validation("user is required")
	}
	return s.store.History(ctx, userID, counterpartID)
}

func (s *Service) Partners(ctx context.Context, userID uint) ([]types.ConversationPartner, error) {
	return s.store.Partners(ctx, userID)
}

func (s *Service) emit(ctx context.Context, evt realtime.Event, userIDs ...uint) {
	if err := s.push.Emit(ctx, evt, userIDs...); err != nil {
		s.log.Warn("failed to push realtime event", "type", evt.Type, "error", err)
	}
}

func (s *Service) publish(ctx context.Context, userID uint, evt events.Event) {
	if err := s.publisher.Publish(ctx, strconv.FormatUint(uint64(userID), 10), evt); err != nil {
		s.log.Warn("failed to publish domain event", "type", evt.Type, "error", err)
	}
}
