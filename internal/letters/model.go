package letters

import "time"

// Letter is a love letter exchanged within a couple. A letter with a future
// unseal time keeps its body hidden from the recipient until then.
type Letter struct {
	LetterID        string    `gorm:"column:letter_id;primaryKey;size:190;not null"`
	CoupleID        string    `gorm:"column:couple_id;size:190;not null;index:idx_letters_couple_created,priority:1"`
	AuthorID        string    `gorm:"column:author_id;size:190;not null"`
	Title           string    `gorm:"column:title;size:320;not null"`
	Body            string    `gorm:"column:body;type:text;not null"`
	UnsealAtSeconds int64     `gorm:"column:unseal_at_s;not null;default:0"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime;index:idx_letters_couple_created,priority:2"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing love letters.
func (Letter) TableName() string {
	return "love_letters"
}

// Sealed reports whether the letter body is still hidden at the given time.
func (l Letter) Sealed(now time.Time) bool {
	return l.UnsealAtSeconds > 0 && now.UTC().Unix() < l.UnsealAtSeconds
}
