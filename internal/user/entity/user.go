package entity

import "time"

// User represents an account row in the `users` table. PasswordHash and
// CurrentRefreshToken never leave the service layer; handlers respond with
// the Public projection instead.
type User struct {
	ID                  string
	Username            string
	Email               string
	FullName            string
	AvatarURL           string
	CoverImageURL       string
	PasswordHash        *string
	CurrentRefreshToken *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PublicUser is the externally visible projection of a user record.
type PublicUser struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullname"`
	AvatarURL     string    `json:"avatar"`
	CoverImageURL string    `json:"coverImage"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Public strips credential material from the record.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		CreatedAt:     u.CreatedAt,
	}
}
