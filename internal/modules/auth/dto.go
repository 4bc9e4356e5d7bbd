package auth

// CredentialsRequest is the shared register/login body.
type CredentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type VerifyRequest struct {
	Token string `json:"token"`
}

type UserPublic struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
