package domain

import "time"

// RefreshToken stores refresh tokens for users.
//
// Security notes:
//   - We never store the raw token in DB, only its SHA-256 hash (TokenHash).
//   - On refresh we rotate tokens: old token is revoked and replaced by a new
//     one in the same family. Reuse of a revoked token kills the family.
//   - Rows are append-only; the only mutation is setting RevokedAt.
type RefreshToken struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	UserID int64 `json:"user_id" gorm:"index;not null"`
	User   User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	TokenHash string `json:"-" gorm:"size:64;uniqueIndex;not null"`

	// FamilyID ties together every token descended from one login.
	FamilyID string `json:"family_id" gorm:"size:36;index;not null"`

	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revoked_at" gorm:"index"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

// IsExpired treats a token expiring exactly now as expired.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}
