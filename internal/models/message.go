package models

import "time"

// Message is immutable after creation except for Read. Sender and receiver
// are plain ids: a dangling receiver is stored as-is.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	SenderID   uint      `gorm:"not null;index:idx_messages_pair" json:"sender"`
	ReceiverID uint      `gorm:"not null;index:idx_messages_pair;index:idx_messages_unread" json:"receiver"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Timestamp  time.Time `gorm:"column:sent_at;not null;index" json:"timestamp"`
	Read       bool      `gorm:"column:is_read;not null;default:false;index:idx_messages_unread" json:"read"`
}
