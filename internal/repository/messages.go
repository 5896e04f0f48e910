package repository

import (
	"context"
	"sort"

	"github.com/samber/lo"
	"github.com/sphere-social/sphere/internal/errs"
	"github.com/sphere-social/sphere/internal/models"
	"github.com/sphere-social/sphere/internal/types"
	"gorm.io/gorm"
)

type Messages struct {
	db *gorm.DB
}

func NewMessages(db *gorm.DB) *Messages {
	return &Messages{db: db}
}

func (r *Messages) Create(ctx context.Context, msg *models.Message) error {
	return errs.Persistence(r.db.WithContext(ctx).Create(msg).Error)
}

// MarkRead flips every unread message from senderID to receiverID in a single
// statement and reports how many rows changed.
func (r *Messages) MarkRead(ctx context.Context, senderID, receiverID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Update("is_read", true)

	if res.Error != nil {
		return 0, errs.Persistence(res.Error)
	}

	return res.RowsAffected, nil
}

func (r *Messages) UnreadCounts(ctx context.Context, receiverID uint) ([]types.UnreadCount, error) {
	counts := []types.UnreadCount{}

	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Select("sender_id AS sender, COUNT(*) AS count").
		Where("receiver_id = ? AND is_read = ?", receiverID, false).
		Group("sender_id").
		Order("sender_id").
		Scan(&counts).Error

	if err != nil {
		return nil, errs.Persistence(err)
	}

	return counts, nil
}

func (r *Messages) UnreadCount(ctx context.Context, receiverID, senderID uint) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).
		Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", senderID, receiverID, false).
		Count(&count).Error

	if err != nil {
		return 0, errs.Persistence(err)
	}

	return count, nil
}

// History returns the conversation between two users, oldest first.
func (r *Messages) History(ctx context.Context, userID, counterpartID uint) ([]models.Message, error) {
	messages := []models.Message{}

	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, counterpartID, counterpartID, userID).
		Order("sent_at ASC").
		Order("id ASC").
		Find(&messages).Error

	if err != nil {
		return nil, errs.Persistence(err)
	}

	return messages, nil
}

type partnerRow struct {
	PartnerID uint
	LastID    uint
}

// partnerRows yields one row per counterpart of userID with the id of the
// latest message between them. The counterpart is computed in a subquery and
// grouped by name, which postgres requires for expressions with parameters.
func partnerRows(db *gorm.DB, userID uint) *gorm.DB {
	conversations := db.Model(&models.Message{}).
		Select("CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS partner_id, id", userID).
		Where("sender_id = ? OR receiver_id = ?", userID, userID)

	return db.Table("(?) AS conversations", conversations).
		Select("partner_id, MAX(id) AS last_id").
		Group("partner_id")
}

// Partners lists everyone userID exchanged messages with, most recent
// interaction first. Counterparts without a user record are left out.
func (r *Messages) Partners(ctx context.Context, userID uint) ([]types.ConversationPartner, error) {
	var rows []partnerRow

	if err := partnerRows(r.db.WithContext(ctx), userID).Scan(&rows).Error; err != nil {
		return nil, errs.Persistence(err)
	}

	if len(rows) == 0 {
		return []types.ConversationPartner{}, nil
	}

	var users []models.User
	partnerIDs := lo.Map(rows, func(row partnerRow, _ int) uint { return row.PartnerID })
	if err := r.db.WithContext(ctx).Where("id IN ?", partnerIDs).Find(&users).Error; err != nil {
		return nil, errs.Persistence(err)
	}

	var last []models.Message
	lastIDs := lo.Map(rows, func(row partnerRow, _ int) uint { return row.LastID })
	if err := r.db.WithContext(ctx).Where("id IN ?", lastIDs).Find(&last).Error; err != nil {
		return nil, errs.Persistence(err)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].LastID > rows[j].LastID })

	usersByID := lo.KeyBy(users, func(u models.User) uint { return u.ID })
	lastByID := lo.KeyBy(last, func(m models.Message) uint { return m.ID })

	partners := lo.FilterMap(rows, func(row partnerRow, _ int) (types.ConversationPartner, bool) {
		user, ok := usersByID[row.PartnerID]
		if !ok {
			return types.ConversationPartner{}, false
		}
		return types.ConversationPartner{
			ID:                   user.ID,
			Name:                 user.Name,
			Username:             user.Username,
			ProfilePhoto:         user.ProfilePhoto,
			LastMessageTimestamp: lastByID[row.LastID].Timestamp,
		}, true
	})

	sort.SliceStable(partners, func(i, j int) bool {
		return partners[i].LastMessageTimestamp.After(partners[j].LastMessageTimestamp)
	})

	return partners, nil
}
