package models

import "time"

type Post struct {
	BaseModel

	UserID  uint   `gorm:"not null;index" json:"user"`
	Content string `gorm:"not null" json:"content"`
	Image   string `json:"image,omitempty"`

	// Relationships
	Author *User `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

type PostLike struct {
	PostID    uint      `gorm:"primaryKey" json:"post"`
	UserID    uint      `gorm:"primaryKey;index" json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

type Follow struct {
	FollowerID uint      `gorm:"primaryKey" json:"follower"`
	FollowedID uint      `gorm:"primaryKey;index" json:"followed"`
	CreatedAt  time.Time `json:"createdAt"`
}
