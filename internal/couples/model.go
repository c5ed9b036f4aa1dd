package couples

import (
	"strings"
	"time"
)

// Couple pairs exactly two user identities sharing session and profile data.
type Couple struct {
	CoupleID             string    `gorm:"column:couple_id;primaryKey;size:190;not null"`
	User1ID              string    `gorm:"column:user1_id;size:190;not null;index"`
	User2ID              string    `gorm:"column:user2_id;size:190;index"`
	InviteCode           string    `gorm:"column:invite_code;size:16;not null;uniqueIndex"`
	AnniversaryAtSeconds int64     `gorm:"column:anniversary_at_s;not null;default:0"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing couples.
func (Couple) TableName() string {
	return "couples"
}

// Membership captures the canonical member ordering of a couple.
type Membership struct {
	User1ID string
	User2ID string
}

// Contains reports whether the given user identity belongs to the couple.
// Identities are compared lower-cased throughout.
func (m Membership) Contains(userID string) bool {
	candidate := strings.ToLower(strings.TrimSpace(userID))
	if candidate == "" {
		return false
	}
	return candidate == strings.ToLower(m.User1ID) || (m.User2ID != "" && candidate == strings.ToLower(m.User2ID))
}

// PartnerOf returns the other member's identity, or empty when the couple is incomplete.
func (m Membership) PartnerOf(userID string) string {
	candidate := strings.ToLower(strings.TrimSpace(userID))
	if candidate == strings.ToLower(m.User1ID) {
		return m.User2ID
	}
	if m.User2ID != "" && candidate == strings.ToLower(m.User2ID) {
		return m.User1ID
	}
	return ""
}
