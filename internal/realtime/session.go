package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/sphere-social/sphere/internal/errs"
	"github.com/sphere-social/sphere/internal/models"
	"github.com/sphere-social/sphere/internal/types"
)

var validate = validator.New()

// MessageService is the part of the messaging layer a socket can drive.
type MessageService interface {
	Send(ctx context.Context, senderID, receiverID uint, content string) (*models.Message, error)
	MarkRead(ctx context.Context, senderID, receiverID uint) error
}

// Session dispatches the events of one admitted connection on behalf of its
// authenticated user.
type Session struct {
	peer     Peer
	registry *Registry
	messages MessageService
	log      *slog.Logger
}

func NewSession(peer Peer, registry *Registry, messages MessageService, log *slog.Logger) *Session {
	return &Session{
		peer:     peer,
		registry: registry,
		messages: messages,
		log:      log.With("conn_id", peer.ID(), "user_id", peer.UserID()),
	}
}

func (s *Session) Handle(ctx context.Context, env Envelope) *Event {
	switch env.Type {
	case EventSendMessage:
		return s.sendMessage(ctx, env)
	case EventJoinUser:
		return s.joinUser(env)
	case EventMarkMessagesRead:
		return s.markMessagesRead(ctx, env)
	default:
		return &Event{Type: EventError, ID: env.ID, Data: ErrorPayload{Message: fmt.Sprintf("unknown event %q", env.Type)}}
	}
}

// sendMessage always answers with exactly one ack.
func (s *Session) sendMessage(ctx context.Context, env Envelope) *Event {
	var payload SendMessagePayload
	if err := decode(env.Data, &payload); err != nil {
		return ackError(env.ID, err)
	}

	msg, err := s.messages.Send(ctx, s.peer.UserID(), payload.Receiver, payload.Content)
	if err != nil {
		s.logFailure("send-message", err)
		return ackError(env.ID, err)
	}

	return &Event{Type: EventAck, ID: env.ID, Data: Ack{Status: AckSuccess, Message: msg}}
}

func (s *Session) joinUser(env Envelope) *Event {
	var payload JoinUserPayload
	if err := decode(env.Data, &payload); err != nil {
		return s.failure(env.ID, err)
	}

	if payload.UserID != s.peer.UserID() {
		return s.failure(env.ID, fmt.Errorf("%w: cannot join another user's room", errs.ErrUnauthenticated))
	}

	s.registry.Join(payload.UserID, s.peer)

	return s.success(env.ID, nil)
}

func (s *Session) markMessagesRead(ctx context.Context, env Envelope) *Event {
	var payload MarkMessagesReadPayload
	if err := decode(env.Data, &payload); err != nil {
		return s.failure(env.ID, err)
	}

	self := s.peer.UserID()
	if payload.Receiver != 0 && payload.Receiver != self {
		return s.failure(env.ID, fmt.Errorf("%w: receiver must be the connected user", errs.ErrUnauthenticated))
	}

	if err := s.messages.MarkRead(ctx, payload.Sender, self); err != nil {
		s.logFailure("mark-messages-read", err)
		return s.failure(env.ID, err)
	}

	return s.success(env.ID, types.ReadReceipt{Sender: payload.Sender, Receiver: self})
}

// success acks only correlated requests.
func (s *Session) success(id string, result any) *Event {
	if id == "" {
		return nil
	}
	return &Event{Type: EventAck, ID: id, Data: Ack{Status: AckSuccess, Message: result}}
}

// failure acks correlated requests and reports an error event otherwise.
func (s *Session) failure(id string, err error) *Event {
	if id == "" {
		return &Event{Type: EventError, Data: ErrorPayload{Message: errs.PublicMessage(err)}}
	}
	return ackError(id, err)
}

func (s *Session) logFailure(event string, err error) {
	if errors.Is(err, errs.ErrPersistence) {
		s.log.Error("realtime event failed", "event", event, "error", err)
		return
	}
	s.log.Debug("realtime event rejected", "event", event, "error", err)
}

func ackError(id string, err error) *Event {
	return &Event{Type: EventAck, ID: id, Data: Ack{Status: AckError, Error: errs.PublicMessage(err)}}
}

func decode(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return errs.Validation("missing payload")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errs.Validation("malformed payload")
	}
	if err := validate.Struct(dst); err != nil {
		return errs.Validation("%s", err.Error())
	}
	return nil
}
