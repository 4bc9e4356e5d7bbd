package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"time"

	"gameauth/internal/domain"
	"gameauth/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 12

type jwtService interface {
	SignAccessToken(userID int64, username string) (string, error)
}

// Service owns the session lifecycle: registration, login and
// refresh-token rotation.
type Service struct {
	users         UserRepositoryInterface
	refreshTokens RefreshTokenRepositoryInterface
	jwt           jwtService
	refreshTTL    time.Duration
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type RefreshResult struct {
	AccessToken  string
	RefreshToken string
}

func NewService(
	users UserRepositoryInterface,
	refreshTokens RefreshTokenRepositoryInterface,
	jwt jwtService,
	refreshTTL time.Duration,
) *Service {
	return &Service{
		users:         users,
		refreshTokens: refreshTokens,
		jwt:           jwt,
		refreshTTL:    refreshTTL,
	}
}

func (s *Service) Register(ctx context.Context, username, password string) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	accessToken, refreshToken, err := s.issueSession(ctx, user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *Service) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Unknown user and wrong password are indistinguishable.
			return nil, ErrBadCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}

	accessToken, refreshToken, err := s.issueSession(ctx, user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// Refresh rotates a refresh token: the presented token is consumed and a
// new one is issued in the same family. Reuse of an already-consumed token
// revokes the whole family.
func (s *Service) Refresh(ctx context.Context, refreshRaw string) (*RefreshResult, error) {
	if refreshRaw == "" {
		return nil, ErrInvalidRefreshToken
	}

	now := time.Now().UTC()
	hash := hashToken(refreshRaw)

	token, err := s.refreshTokens.GetByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}

	if token.IsRevoked() {
		// Replay detected: kill the whole lineage.
		if err := s.refreshTokens.RevokeFamily(ctx, token.FamilyID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidRefreshToken
	}

	if token.IsExpired(now) {
		if _, err := s.refreshTokens.Revoke(ctx, token.ID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidRefreshToken
	}

	revoked, err := s.refreshTokens.Revoke(ctx, token.ID)
	if err != nil {
		return nil, err
	}
	if !revoked {
		// Lost the race against a concurrent refresh of the same token;
		// treat it like a replay.
		if err := s.refreshTokens.RevokeFamily(ctx, token.FamilyID); err != nil {
			return nil, err
		}
		return nil, ErrInvalidRefreshToken
	}

	newRaw, newHash, err := generateOpaqueToken()
	if err != nil {
		return nil, err
	}
	if err := s.refreshTokens.Create(ctx, &domain.RefreshToken{
		UserID:    token.UserID,
		TokenHash: newHash,
		FamilyID:  token.FamilyID,
		ExpiresAt: now.Add(s.refreshTTL),
	}); err != nil {
		return nil, err
	}

	accessToken, err := s.jwt.SignAccessToken(token.UserID, "")
	if err != nil {
		return nil, err
	}

	return &RefreshResult{AccessToken: accessToken, RefreshToken: newRaw}, nil
}

func (s *Service) issueSession(ctx context.Context, userID int64, username string) (accessToken, refreshToken string, err error) {
	refreshToken, refreshHash, err := generateOpaqueToken()
	if err != nil {
		return "", "", err
	}

	familyID := uuid.NewString()
	now := time.Now().UTC()
	if err := s.refreshTokens.Create(ctx, &domain.RefreshToken{
		UserID:    userID,
		TokenHash: refreshHash,
		FamilyID:  familyID,
		ExpiresAt: now.Add(s.refreshTTL),
	}); err != nil {
		return "", "", err
	}

	accessToken, err = s.jwt.SignAccessToken(userID, username)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func generateOpaqueToken() (raw string, hash string, err error) {
	buf := make([]byte, 48)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, hashToken(raw), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
