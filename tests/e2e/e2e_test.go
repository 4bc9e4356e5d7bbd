package e2e

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"gameauth/internal/database"
	"gameauth/internal/domain"
	"gameauth/internal/modules/auth"
	jwtsvc "gameauth/internal/pkg/jwt"
	"gameauth/internal/repository"
)

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtService *jwtsvc.Service
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	gin.SetMode(gin.TestMode)

	// Use in-memory SQLite for testing
	db, err := database.Connect(":memory:")
	require.NoError(t, err, "Failed to connect to test database")
	require.NoError(t, database.Migrate(db), "Failed to migrate schema")

	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)

	j := jwtsvc.New("e2e-test-secret", 15*time.Minute)

	authService := auth.NewService(userRepo, refreshRepo, j, 7*24*time.Hour)
	authHandler := auth.NewHandler(authService, j)

	router := gin.New()
	api := router.Group("/api")
	authHandler.RegisterRoutes(api)

	return &E2ETestSuite{router: router, db: db, jwtService: j}
}

func (s *E2ETestSuite) post(t *testing.T, path string, body any, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var parsed map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &parsed))
	}
	return w, parsed
}

func (s *E2ETestSuite) register(t *testing.T, username, password string) map[string]any {
	w, body := s.post(t, "/api/auth/register", map[string]any{
		"username": username,
		"password": password,
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	return body
}

func TestRegisterLoginVerifyJourney(t *testing.T) {
	s := setupTestSuite(t)

	registered := s.register(t, "alice", "password123")
	assert.NotEmpty(t, registered["accessToken"])
	assert.NotEmpty(t, registered["refreshToken"])
	user := registered["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])

	w, loggedIn := s.post(t, "/api/auth/login", map[string]any{
		"username": "alice",
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Both tokens verify to the same subject.
	regClaims, err := s.jwtService.VerifyAccessToken(registered["accessToken"].(string))
	require.NoError(t, err)
	loginClaims, err := s.jwtService.VerifyAccessToken(loggedIn["accessToken"].(string))
	require.NoError(t, err)
	assert.Equal(t, regClaims.Subject, loginClaims.Subject)

	// Verify endpoint agrees.
	w, verified := s.post(t, "/api/auth/verify", nil, map[string]string{
		"Authorization": "Bearer " + registered["accessToken"].(string),
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, verified["valid"])
	claims := verified["claims"].(map[string]any)
	assert.Equal(t, regClaims.Subject, claims["sub"])
	assert.Equal(t, "alice", claims["username"])
	assert.Equal(t, "access", claims["tokenType"])
}

func TestLogin_BadCredentials(t *testing.T) {
	s := setupTestSuite(t)
	s.register(t, "alice", "password123")

	// Wrong password and unknown user look identical.
	w, body := s.post(t, "/api/auth/login", map[string]any{
		"username": "alice",
		"password": "wrong-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "bad_credentials", body["error"])

	w, body = s.post(t, "/api/auth/login", map[string]any{
		"username": "nobody",
		"password": "password123",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "bad_credentials", body["error"])
}

func TestRegister_DuplicateKeepsFirstSession(t *testing.T) {
	s := setupTestSuite(t)

	first := s.register(t, "alice", "password123")

	w, body := s.post(t, "/api/auth/register", map[string]any{
		"username": "alice",
		"password": "other-password",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "user_already_exists", body["error"])

	// The first registration's session is untouched.
	w, _ = s.post(t, "/api/auth/refresh", map[string]any{
		"refreshToken": first["refreshToken"],
	}, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRefresh_RotationAndReplayKillsFamily(t *testing.T) {
	s := setupTestSuite(t)

	registered := s.register(t, "alice", "password123")
	t0 := registered["refreshToken"].(string)

	// T0 -> T1
	w, rotated := s.post(t, "/api/auth/refresh", map[string]any{"refreshToken": t0}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	t1 := rotated["refreshToken"].(string)
	assert.NotEqual(t, t0, t1)
	assert.NotEmpty(t, rotated["accessToken"])

	// Replaying T0 is a detected reuse.
	w, body := s.post(t, "/api/auth/refresh", map[string]any{"refreshToken": t0}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_refresh_token", body["error"])

	// The replay revoked the whole family: T1 is dead too.
	w, body = s.post(t, "/api/auth/refresh", map[string]any{"refreshToken": t1}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_refresh_token", body["error"])
}

func TestRefresh_MissingAndUnknownToken(t *testing.T) {
	s := setupTestSuite(t)

	w, body := s.post(t, "/api/auth/refresh", map[string]any{}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_refresh_token", body["error"])

	w, body = s.post(t, "/api/auth/refresh", map[string]any{"refreshToken": "never-issued"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_refresh_token", body["error"])
}

func TestRefresh_ExpiredTokenIsPermanentlyRevoked(t *testing.T) {
	s := setupTestSuite(t)

	registered := s.register(t, "alice", "password123")
	userID := int64(registered["user"].(map[string]any)["id"].(float64))

	// Plant an already-expired record directly in the store.
	raw := "expired-raw-token"
	sum := sha256.Sum256([]byte(raw))
	record := &domain.RefreshToken{
		UserID:    userID,
		TokenHash: hex.EncodeToString(sum[:]),
		FamilyID:  "expired-family",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	require.NoError(t, s.db.Create(record).Error)

	w, body := s.post(t, "/api/auth/refresh", map[string]any{"refreshToken": raw}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid_refresh_token", body["error"])

	var stored domain.RefreshToken
	require.NoError(t, s.db.Where("token_hash = ?", record.TokenHash).First(&stored).Error)
	assert.NotNil(t, stored.RevokedAt, "expired record must be revoked on first touch")

	// Repeated attempts stay rejected.
	w, _ = s.post(t, "/api/auth/refresh", map[string]any{"refreshToken": raw}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerify_NoTokenAnywhere(t *testing.T) {
	s := setupTestSuite(t)

	w, body := s.post(t, "/api/auth/verify", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["valid"])
}
