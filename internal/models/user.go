package models

type User struct {
	ID             FlexID `json:"user_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Bio            string `json:"bio,omitempty"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// TokenResponse is returned by login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
