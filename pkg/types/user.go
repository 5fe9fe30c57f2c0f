package types

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the authenticated account.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Store *Store `json:"store,omitempty"`
}

// Token is the credential pair returned by login and refresh.
type Token struct {
	Type         string `json:"type"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginRequest authenticates with email and password.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	FcmToken string `json:"fcmToken,omitempty"`
}

// LoginResponse is returned by login, refresh and profile.
type LoginResponse struct {
	Message string `json:"message,omitempty"`
	Token   *Token `json:"token,omitempty"`
	Data    User   `json:"data"`
}

// RefreshRequest exchanges a refresh token for a new pair. The API also
// accepts the token from its cookie, so the field may be empty.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// ForgotPasswordRequest asks for a reset link.
type ForgotPasswordRequest struct {
	Email          string `json:"email" validate:"required,email"`
	VerifyEmailURL string `json:"verifyEmailUrl" validate:"required,url"`
}

// ResetPasswordRequest sets a new password with a reset token.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

// UpdateProfileRequest changes name and email.
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// UpdatePasswordRequest changes the password.
type UpdatePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,nefield=OldPassword"`
}
