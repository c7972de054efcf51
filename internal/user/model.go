package user

type User struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name"`
	Email            string  `json:"email"`
	PasswordHash     string  `json:"-"` // Never expose password hash in JSON
	ResetCode        *string `json:"-"`
	ResetRequestedAt *int64  `json:"-"` // epoch ms
	CreatedAt        *int64  `json:"created_at,omitempty"`
	AvatarPath       *string `json:"-"`
}
