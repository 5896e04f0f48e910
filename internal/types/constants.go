package types

// ContextUserKey is the gin context key holding the authenticated user.
const ContextUserKey = "user"

type UserResponse struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Bio          string `json:"bio,omitempty"`
	ProfilePhoto string `json:"profilePhoto,omitempty"`
}
