package models

type User struct {
	BaseModel

	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Name         string `gorm:"not null" json:"name"`
	Email        string `gorm:"uniqueIndex;not null" json:"-"`
	PasswordHash string `gorm:"not null" json:"-"`
	Bio          string `json:"bio"`
	ProfilePhoto string `json:"profilePhoto"`
	FirstLogin   bool   `gorm:"not null;default:true" json:"firstLogin"`
}
