package types

import "time"

type UnreadCount struct {
	Sender uint  `json:"sender"`
	Count  int64 `json:"count"`
}

// ConversationPartner is a user the caller has exchanged messages with.
type ConversationPartner struct {
	ID                   uint      `json:"id"`
	Name                 string    `json:"name"`
	Username             string    `json:"username"`
	ProfilePhoto         string    `json:"profilePhoto"`
	LastMessageTimestamp time.Time `json:"lastMessageTimestamp"`
}

// ReadReceipt tells both parties that sender's messages to receiver were read.
type ReadReceipt struct {
	Sender   uint `json:"sender"`
	Receiver uint `json:"receiver"`
}
