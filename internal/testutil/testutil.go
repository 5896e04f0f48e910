// Package testutil builds throwaway databases and loggers for tests.
package testutil

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/sphere-social/sphere/db"
	"github.com/sphere-social/sphere/internal/auth"
	"github.com/sphere-social/sphere/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewDB opens a private in-memory sqlite database with the full schema.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := db.Connect(context.Background(), "sqlite", dsn, Logger())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return conn
}

// CreateUser inserts an account whose password is "password123".
func CreateUser(t testing.TB, conn *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("password123")
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Name:         username,
		Email:        username + "@sphere.test",
		PasswordHash: hash,
		FirstLogin:   true,
	}
	require.NoError(t, conn.Create(user).Error)

	return user
}

func CreatePost(t testing.TB, conn *gorm.DB, authorID uint, content string) *models.Post {
	t.Helper()

	post := &models.Post{UserID: authorID, Content: content}
	require.NoError(t, conn.Create(post).Error)

	return post
}
