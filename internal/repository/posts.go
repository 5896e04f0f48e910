package repository

import (
	"context"

	"github.com/sphere-social/sphere/internal/errs"
	"github.com/sphere-social/sphere/internal/models"
	"gorm.io/gorm"
)

type Posts struct {
	db *gorm.DB
}

func NewPosts(db *gorm.DB) *Posts {
	return &Posts{db: db}
}

func (r *Posts) Create(ctx context.Context, post *models.Post) error {
	return errs.Persistence(r.db.WithContext(ctx).Create(post).Error)
}

func (r *Posts) FindByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post

	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, errs.Persistence(err)
	}

	return &post, nil
}

// ToggleLike likes the post for userID, or removes the like when it already
// exists. It reports the new state and the post's like count.
func (r *Posts) ToggleLike(ctx context.Context, postID, userID uint) (bool, int64, error) {
	var (
		liked bool
		likes int64
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&models.Post{}, postID).Error; err != nil {
			return err
		}

		res := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			if err := tx.Create(&models.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
				return err
			}
			liked = true
		}

		return tx.Model(&models.PostLike{}).Where("post_id = ?", postID).Count(&likes).Error
	})
	if err != nil {
		return false, 0, errs.Persistence(err)
	}

	return liked, likes, nil
}
