package milestones

import "time"

// Categories a milestone can be filed under.
const (
	CategoryFirsts      = "firsts"
	CategoryAnniversary = "anniversary"
	CategoryIntimacy    = "intimacy"
	CategoryAdventure   = "adventure"
	CategoryOther       = "other"
)

// Milestone marks a moment the couple wants to remember.
type Milestone struct {
	MilestoneID       string    `gorm:"column:milestone_id;primaryKey;size:190;not null"`
	CoupleID          string    `gorm:"column:couple_id;size:190;not null;index:idx_milestones_couple_achieved,priority:1"`
	CreatedBy         string    `gorm:"column:created_by;size:190;not null"`
	Title             string    `gorm:"column:title;size:320;not null"`
	Description       string    `gorm:"column:description;type:text"`
	Category          string    `gorm:"column:category;size:32;not null;default:other"`
	AchievedAtSeconds int64     `gorm:"column:achieved_at_s;not null;index:idx_milestones_couple_achieved,priority:2"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing milestones.
func (Milestone) TableName() string {
	return "milestones"
}
