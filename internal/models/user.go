package models

// User is an account allowed to sign in to the editor.
// Passwords are stored and compared as given.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Role     string `json:"role"`
}
