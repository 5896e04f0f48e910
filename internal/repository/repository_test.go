package repository

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sphere-social/sphere/internal/errs"
	"github.com/sphere-social/sphere/internal/models"
	"github.com/sphere-social/sphere/internal/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestMessages_UnreadAndMarkRead(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := testutil.NewDB(t)
	repo := NewMessages(conn)

	// Given 3 unread messages from A to B and one from C to B
	for i := 0; i < 3; i++ {
		req.NoError(repo.Create(ctx, &models.Message{SenderID: 1, ReceiverID: 2, Content: "hi", Timestamp: time.Now()}))
	}
	req.NoError(repo.Create(ctx, &models.Message{SenderID: 3, ReceiverID: 2, Content: "yo", Timestamp: time.Now()}))

	counts, err := repo.UnreadCounts(ctx, 2)
	req.NoError(err)
	req.Len(counts, 2)
	req.Equal(uint(1), counts[0].Sender)
	req.Equal(int64(3), counts[0].Count)
	req.Equal(uint(3), counts[1].Sender)
	req.Equal(int64(1), counts[1].Count)

	// When B reads A's messages
	changed, err := repo.MarkRead(ctx, 1, 2)
	req.NoError(err)
	req.Equal(int64(3), changed)

	// Then only C's message stays unread
	count, err := repo.UnreadCount(ctx, 2, 1)
	req.NoError(err)
	req.Zero(count)

	count, err = repo.UnreadCount(ctx, 2, 3)
	req.NoError(err)
	req.Equal(int64(1), count)

	changed, err = repo.MarkRead(ctx, 1, 2)
	req.NoError(err)
	req.Zero(changed)
}

func TestMessages_HistoryIsChronological(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repo := NewMessages(testutil.NewDB(t))

	base := time.Now().UTC()
	req.NoError(repo.Create(ctx, &models.Message{SenderID: 2, ReceiverID: 1, Content: "second", Timestamp: base.Add(time.Second)}))
	req.NoError(repo.Create(ctx, &models.Message{SenderID: 1, ReceiverID: 2, Content: "first", Timestamp: base}))
	req.NoError(repo.Create(ctx, &models.Message{SenderID: 1, ReceiverID: 3, Content: "elsewhere", Timestamp: base}))

	history, err := repo.History(ctx, 1, 2)
	req.NoError(err)
	req.Len(history, 2)
	req.Equal("first", history[0].Content)
	req.Equal("second", history[1].Content)
}

func TestMessages_PartnersByLastInteraction(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := testutil.NewDB(t)
	repo := NewMessages(conn)

	me := testutil.CreateUser(t, conn, "me")
	bob := testutil.CreateUser(t, conn, "bob")
	eve := testutil.CreateUser(t, conn, "eve")

	base := time.Now().UTC()
	req.NoError(repo.Create(ctx, &models.Message{SenderID: me.ID, ReceiverID: bob.ID, Content: "old", Timestamp: base}))
	req.NoError(repo.Create(ctx, &models.Message{SenderID: eve.ID, ReceiverID: me.ID, Content: "newer", Timestamp: base.Add(time.Minute)}))
	req.NoError(repo.Create(ctx, &models.Message{SenderID: me.ID, ReceiverID: 9999, Content: "ghost", Timestamp: base.Add(time.Hour)}))

	partners, err := repo.Partners(ctx, me.ID)
	req.NoError(err)
	req.Len(partners, 2)
	req.Equal(eve.ID, partners[0].ID)
	req.Equal("eve", partners[0].Username)
	req.Equal(bob.ID, partners[1].ID)
	req.WithinDuration(base, partners[1].LastMessageTimestamp, time.Second)
}

func TestMessages_PartnerQueryOnPostgres(t *testing.T) {
	req := require.New(t)

	conn, err := gorm.Open(
		postgres.New(postgres.Config{DSN: "host=127.0.0.1 user=sphere dbname=sphere sslmode=disable"}),
		&gorm.Config{DisableAutomaticPing: true},
	)
	req.NoError(err)

	sql := conn.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []partnerRow
		return partnerRows(tx, 7).Find(&rows)
	})

	// The counterpart expression is written once and grouped by its alias
	req.Equal(1, strings.Count(sql, "CASE WHEN"), sql)
	req.Contains(sql, `GROUP BY "partner_id"`)
	req.Contains(sql, "receiver_id = 7")
}

func TestMessages_PartnersEmpty(t *testing.T) {
	partners, err := NewMessages(testutil.NewDB(t)).Partners(context.Background(), 1)
	require.NoError(t, err)
	require.Empty(t, partners)
}

func TestNotifications_CreateWelcomeOnce(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := testutil.NewDB(t)
	repo := NewNotifications(conn)
	user := testutil.CreateUser(t, conn, "alice")

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := repo.CreateWelcome(ctx, user.ID)
			if err == nil && n != nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	req.Equal(1, created)

	list, err := repo.ListForRecipient(ctx, user.ID)
	req.NoError(err)
	req.Len(list, 1)
	req.Equal(models.NotificationWelcome, list[0].Type)

	var reloaded models.User
	req.NoError(conn.First(&reloaded, user.ID).Error)
	req.False(reloaded.FirstLogin)
}

func TestNotifications_MarkReadOnlyByRecipient(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := testutil.NewDB(t)
	repo := NewNotifications(conn)

	owner := testutil.CreateUser(t, conn, "owner")
	liker := testutil.CreateUser(t, conn, "liker")
	post := testutil.CreatePost(t, conn, owner.ID, "hello")

	n := &models.Notification{RecipientID: owner.ID, SenderID: &liker.ID, PostID: &post.ID, Type: models.NotificationLike}
	req.NoError(repo.Create(ctx, n))

	_, err := repo.MarkRead(ctx, n.ID, liker.ID)
	req.ErrorIs(err, errs.ErrNotFound)

	updated, err := repo.MarkRead(ctx, n.ID, owner.ID)
	req.NoError(err)
	req.True(updated.Read)
	req.NotNil(updated.Sender)
	req.Equal("liker", updated.Sender.Username)
	req.NotNil(updated.Post)
	req.Equal("hello", updated.Post.Content)
}

func TestUsers_CreateRejectsDuplicates(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := testutil.NewDB(t)
	repo := NewUsers(conn)

	testutil.CreateUser(t, conn, "taken")

	err := repo.Create(ctx, &models.User{Username: "other", Name: "x", Email: "taken@sphere.test", PasswordHash: "h"})
	req.ErrorIs(err, errs.ErrValidation)

	err = repo.Create(ctx, &models.User{Username: "taken", Name: "x", Email: "new@sphere.test", PasswordHash: "h"})
	req.ErrorIs(err, errs.ErrValidation)

	_, err = repo.FindByID(ctx, 4242)
	req.ErrorIs(err, errs.ErrNotFound)
}

func TestUsers_ConcurrentRegistrationsWithSameEmail(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := testutil.NewDB(t)
	repo := NewUsers(conn)

	var (
		wg   sync.WaitGroup
		errC = make(chan error, 6)
	)
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errC <- repo.Create(ctx, &models.User{Username: "racer", Name: "r", Email: "racer@sphere.test", PasswordHash: "h"})
		}()
	}
	wg.Wait()
	close(errC)

	// Then one registration wins and every other one is a validation error
	created := 0
	for err := range errC {
		if err == nil {
			created++
			continue
		}
		req.ErrorIs(err, errs.ErrValidation)
	}
	req.Equal(1, created)

	var count int64
	req.NoError(conn.Model(&models.User{}).Where("email = ?", "racer@sphere.test").Count(&count).Error)
	req.Equal(int64(1), count)
}

func TestUsers_ToggleFollow(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := testutil.NewDB(t)
	repo := NewUsers(conn)

	a := testutil.CreateUser(t, conn, "a")
	b := testutil.CreateUser(t, conn, "b")

	following, followers, err := repo.ToggleFollow(ctx, a.ID, b.ID)
	req.NoError(err)
	req.True(following)
	req.Equal(int64(1), followers)

	following, followers, err = repo.ToggleFollow(ctx, a.ID, b.ID)
	req.NoError(err)
	req.False(following)
	req.Zero(followers)

	_, _, err = repo.ToggleFollow(ctx, a.ID, 777)
	req.ErrorIs(err, errs.ErrNotFound)
}

func TestPosts_ToggleLike(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	conn := testutil.NewDB(t)
	repo := NewPosts(conn)

	author := testutil.CreateUser(t, conn, "author")
	fan := testutil.CreateUser(t, conn, "fan")
	post := testutil.CreatePost(t, conn, author.ID, "post")

	liked, likes, err := repo.ToggleLike(ctx, post.ID, fan.ID)
	req.NoError(err)
	req.True(liked)
	req.Equal(int64(1), likes)

	liked, likes, err = repo.ToggleLike(ctx, post.ID, fan.ID)
	req.NoError(err)
	req.False(liked)
	req.Zero(likes)

	_, _, err = repo.ToggleLike(ctx, 999, fan.ID)
	req.ErrorIs(err, errs.ErrNotFound)
}
