package models

import "time"

type NotificationType string

const (
	NotificationWelcome NotificationType = "welcome"
	NotificationLike    NotificationType = "like"
	NotificationFollow  NotificationType = "follow"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationWelcome, NotificationLike, NotificationFollow:
		return true
	}
	return false
}

type Notification struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	RecipientID uint             `gorm:"not null;index" json:"recipient"`
	SenderID    *uint            `gorm:"index" json:"-"`
	PostID      *uint            `json:"-"`
	Type        NotificationType `gorm:"type:varchar(16);not null" json:"type"`
	Read        bool             `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt   time.Time        `gorm:"index" json:"createdAt"`

	// Relationships, loaded for delivery and listing.
	Sender *User `gorm:"foreignKey:SenderID;constraint:OnDelete:SET NULL" json:"sender,omitempty"`
	Post   *Post `gorm:"foreignKey:PostID;constraint:OnDelete:SET NULL" json:"post,omitempty"`
}
