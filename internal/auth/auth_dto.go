package auth

// Passwords are capped at bcrypt's 72-byte input limit.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
	Role     string `json:"role" binding:"required,oneof=admin employee"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
	Role     string `json:"role" binding:"required,oneof=admin employee"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	ID    string `json:"id"`
}

type RegisterResponse struct {
	Message string `json:"message"`
}

type MeResponse struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Email string `json:"email"`
}
