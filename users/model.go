package users

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	goSession "github.com/MrEthical07/goSession"
)

// User is the users table row.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID          uuid.UUID  `bun:"uuid,pk,type:uuid"`
	Username    string     `bun:"username,notnull,unique"`
	DisplayName string     `bun:"display_name,nullzero"`
	Email       string     `bun:"email,notnull,unique"`
	Password    string     `bun:"password,notnull"`
	AvatarURL   string     `bun:"avatar_url,nullzero"`
	Biography   string     `bun:"biography,nullzero"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
	DeletedAt   *time.Time `bun:"deleted_at,soft_delete,nullzero"`
}

func (u *User) account() *goSession.Account {
	return &goSession.Account{
		ID:           u.ID.String(),
		Username:     u.Username,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		AvatarURL:    u.AvatarURL,
		Biography:    u.Biography,
		PasswordHash: u.Password,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		DeletedAt:    u.DeletedAt,
	}
}
