package dto

// LoginRequest is the credential payload for /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the signed JWT for subsequent API calls.
type LoginResponse struct {
	Token string `json:"token"`
}
