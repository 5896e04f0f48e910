package repository

import (
	"context"
	"errors"

	"github.com/sphere-social/sphere/internal/errs"
	"github.com/sphere-social/sphere/internal/models"
	"gorm.io/gorm"
)

type Notifications struct {
	db *gorm.DB
}

func NewNotifications(db *gorm.DB) *Notifications {
	return &Notifications{db: db}
}

func (r *Notifications) Create(ctx context.Context, n *models.Notification) error {
	return errs.Persistence(r.db.WithContext(ctx).Create(n).Error)
}

// Load fetches a notification with its sender and post populated.
func (r *Notifications) Load(ctx context.Context, id uint) (*models.Notification, error) {
	var n models.Notification

	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Post").
		First(&n, id).Error
	if err != nil {
		return nil, errs.Persistence(err)
	}

	return &n, nil
}

func (r *Notifications) ListForRecipient(ctx context.Context, recipientID uint) ([]models.Notification, error) {
	notifications := []models.Notification{}

	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Post").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, errs.Persistence(err)
	}

	return notifications, nil
}

// MarkRead flips the read flag of a notification owned by recipientID.
// Notifications belonging to someone else are reported as not found.
func (r *Notifications) MarkRead(ctx context.Context, id, recipientID uint) (*models.Notification, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)

	if res.Error != nil {
		return nil, errs.Persistence(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errs.NotFound("notification")
	}

	return r.Load(ctx, id)
}

var errAlreadyWelcomed = errors.New("first login already claimed")

// CreateWelcome claims the user's first-login flag and stores the welcome
// notification in one transaction. It returns nil when the flag was already
// claimed, so a user is welcomed at most once.
func (r *Notifications) CreateWelcome(ctx context.Context, userID uint) (*models.Notification, error) {
	var created *models.Notification

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND first_login = ?", userID, true).
			Update("first_login", false)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return errAlreadyWelcomed
		}

		n := models.Notification{
			RecipientID: userID,
			Type:        models.NotificationWelcome,
		}
		if err := tx.Create(&n).Error; err != nil {
			return err
		}

		created = &n
		return nil
	})

	if errors.Is(err, errAlreadyWelcomed) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Persistence(err)
	}

	return created, nil
}
