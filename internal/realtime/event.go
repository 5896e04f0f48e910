package realtime

import (
	"encoding/json"
)

type EventType string

// Client to server.
const (
	EventSendMessage      EventType = "send-message"
	EventJoinUser         EventType = "join-user"
	EventMarkMessagesRead EventType = "mark-messages-read"
)

// Server to client.
const (
	EventReceiveMessage  EventType = "receive-message"
	EventMessageRead     EventType = "message-read"
	EventNewNotification EventType = "new-notification"
	EventAck             EventType = "ack"
	EventConnectError    EventType = "connect_error"
	EventError           EventType = "error"
)

// Envelope is the JSON frame exchanged over the socket in both directions.
type Envelope struct {
	Type EventType       `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event is an outbound server push before encoding.
type Event struct {
	Type EventType
	ID   string
	Data any
}

func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Type: e.Type, ID: e.ID, Data: data})
}

type AckStatus string

const (
	AckSuccess AckStatus = "success"
	AckError   AckStatus = "error"
)

// Ack answers one correlated client request.
type Ack struct {
	Status  AckStatus `json:"status"`
	Message any       `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type SendMessagePayload struct {
	Receiver uint   `json:"receiver" validate:"required,gt=0"`
	Content  string `json:"content" validate:"required"`
}

type JoinUserPayload struct {
	UserID uint `json:"userId" validate:"required,gt=0"`
}

type MarkMessagesReadPayload struct {
	Sender   uint `json:"sender" validate:"required,gt=0"`
	Receiver uint `json:"receiver"`
}
