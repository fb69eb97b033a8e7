package rest

// Authentication types

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse contains the JWT token returned after successful authentication.
type TokenResponse struct {
	Token string `json:"token"`
}

// User is the profile record returned by the identity endpoints.
type User struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Approved bool   `json:"approved,omitempty"`
	IsAdmin  bool   `json:"isAdmin,omitempty"`
}

// UpdateProfileRequest is the request body for the profile edit flow.
// Zero-valued fields are left unchanged by the server.
type UpdateProfileRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
