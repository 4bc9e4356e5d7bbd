package auth

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"gameauth/internal/pkg/jwt"
	"gameauth/internal/pkg/response"
	"gameauth/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
	jwt     *jwt.Service
}

// NewHandler creates a new auth handler with injected service
func NewHandler(service *Service, jwtSvc *jwt.Service) *Handler {
	return &Handler{
		service: service,
		jwt:     jwtSvc,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/verify", h.Verify)
	}
}

func (h *Handler) Register(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	result, err := h.service.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			response.Error(c, http.StatusConflict, "user_already_exists", "User already exists")
			return
		}
		c.Error(err)
		response.Error(c, http.StatusInternalServerError, "unexpected_error", "Unexpected server error")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user": UserPublic{
			ID:       result.User.ID,
			Username: result.User.Username,
		},
	})
}

func (h *Handler) Login(c *gin.Context) {
	req, ok := bindCredentials(c)
	if !ok {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			response.Error(c, http.StatusUnauthorized, "bad_credentials", "Invalid credentials")
			return
		}
		c.Error(err)
		response.Error(c, http.StatusInternalServerError, "unexpected_error", "Unexpected server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
		"user": UserPublic{
			ID:       result.User.ID,
			Username: result.User.Username,
		},
	})
}

func (h *Handler) Refresh(c *gin.Context) {
	// An empty body means an absent token, which is a 401, not a 400.
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.ErrorWithDetails(c, http.StatusBadRequest, "invalid_input", "Invalid input", validator.Details(err))
		return
	}

	result, err := h.service.Refresh(c.Request.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			response.Error(c, http.StatusUnauthorized, "invalid_refresh_token", "Invalid or expired refresh token")
			return
		}
		c.Error(err)
		response.Error(c, http.StatusInternalServerError, "unexpected_error", "Unexpected server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken":  result.AccessToken,
		"refreshToken": result.RefreshToken,
	})
}

// Verify validates an access token for downstream services. Fully
// stateless: signature and claims only, no store lookup. Every failure is
// the same uniform 401.
func (h *Handler) Verify(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		var req VerifyRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = strings.TrimSpace(req.Token)
		}
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}

	claims, err := h.jwt.VerifyAccessToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"valid": false})
		return
	}

	payload := gin.H{
		"sub":       claims.Subject,
		"tokenType": claims.TokenType,
	}
	if claims.Username != "" {
		payload["username"] = claims.Username
	}
	if claims.IssuedAt != nil {
		payload["iat"] = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		payload["exp"] = claims.ExpiresAt.Unix()
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":  true,
		"claims": payload,
	})
}

// bindCredentials parses and validates a register/login body, writing the
// invalid_input envelope itself on failure.
func bindCredentials(c *gin.Context) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "invalid_input", "Invalid input", validator.Details(err))
		return req, false
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		response.ErrorWithDetails(c, http.StatusBadRequest, "invalid_input", "Invalid input", []validator.FieldError{
			{Field: "username", Message: "username is required and must be a non-empty string"},
		})
		return req, false
	}

	return req, true
}

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	parts := strings.Fields(h)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}
