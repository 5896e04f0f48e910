package repository

import (
	"context"
	"errors"

	"github.com/sphere-social/sphere/internal/errs"
	"github.com/sphere-social/sphere/internal/models"
	"gorm.io/gorm"
)

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// Create stores a new account. A taken email or username is a validation
// error, including when a concurrent registration wins the unique index.
func (r *Users) Create(ctx context.Context, user *models.User) error {
	if err := r.available(ctx, user); err != nil {
		return err
	}

	err := r.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}

	if taken := r.available(ctx, user); taken != nil {
		return taken
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errs.Validation("email or username already exists")
	}

	return errs.Persistence(err)
}

func (r *Users) available(ctx context.Context, user *models.User) error {
	var existing models.User

	err := r.db.WithContext(ctx).
		Where("email = ? OR username = ?", user.Email, user.Username).
		First(&existing).Error

	switch {
	case err == nil && existing.Email == user.Email:
		return errs.Validation("email already exists")
	case err == nil:
		return errs.Validation("username already exists")
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	default:
		return errs.Persistence(err)
	}
}

func (r *Users) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User

	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, errs.Persistence(err)
	}

	return &user, nil
}

func (r *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User

	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, errs.Persistence(err)
	}

	return &user, nil
}

// ToggleFollow follows followedID on behalf of followerID, or unfollows when
// the relation already exists. It reports the new state and follower count.
func (r *Users) ToggleFollow(ctx context.Context, followerID, followedID uint) (bool, int64, error) {
	var (
		following bool
		followers int64
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.User{}, followedID).Error; err != nil {
			return err
		}

		res := tx.Where("follower_id = ? AND followed_id = ?", followerID, followedID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			if err := tx.Create(&models.Follow{FollowerID: followerID, FollowedID: followedID}).Error; err != nil {
				return err
			}
			following = true
		}

		return tx.Model(&models.Follow{}).Where("followed_id = ?", followedID).Count(&followers).Error
	})
	if err != nil {
		return false, 0, errs.Persistence(err)
	}

	return following, followers, nil
}
