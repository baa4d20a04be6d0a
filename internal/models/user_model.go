package models

// UserRequest represents the incoming JSON payload for user registration/login
type UserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the payload of PUT /user/change-password
type ChangePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// UserResponse represents the outgoing JSON response
type UserResponse struct {
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}
