package model

// User is the authenticated caller, taken from the Supabase access token.
type User struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}
