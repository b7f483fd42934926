package packets

import (
	"time"

	"github.com/daygrid/daygrid/internal/model"
)

// UserSummary is the admin-facing user row; it never carries the password
// hash.
type UserSummary struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func NewUserSummary(u *model.User) UserSummary {
	return UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func NewUserList(users []model.User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for i := range users {
		out = append(out, NewUserSummary(&users[i]))
	}
	return out
}
