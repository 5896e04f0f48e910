package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sphere-social/sphere/internal/errs"
	"github.com/sphere-social/sphere/internal/types"
	"github.com/stretchr/testify/require"
)

func TestGetIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		value   string
		want    uint
		wantErr bool
	}{
		{"42", 42, false},
		{"", 0, true},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
			ctx.Params = gin.Params{{Key: "userId", Value: tt.value}}

			got, err := GetIDParam(ctx, "userId")
			if tt.wantErr {
				require.ErrorIs(t, err, errs.ErrValidation)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBearerToken(t *testing.T) {
	req := require.New(t)

	token, err := BearerToken("Bearer abc.def")
	req.NoError(err)
	req.Equal("abc.def", token)

	for _, header := range []string{"", "abc.def", "Basic abc", "Bearer "} {
		_, err := BearerToken(header)
		req.Error(err, header)
	}
}

func TestGetCurrentUser(t *testing.T) {
	req := require.New(t)
	gin.SetMode(gin.TestMode)
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetCurrentUserID(ctx)
	req.ErrorIs(err, errs.ErrUnauthenticated)

	ctx.Set(types.ContextUserKey, AuthenticatedUser{ID: 9, Username: "nine"})
	id, err := GetCurrentUserID(ctx)
	req.NoError(err)
	req.Equal(uint(9), id)
}
