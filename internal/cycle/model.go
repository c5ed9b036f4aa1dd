package cycle

import "time"

// Flow levels recorded on a daily log.
const (
	FlowNone   = "none"
	FlowLight  = "light"
	FlowMedium = "medium"
	FlowHeavy  = "heavy"
)

// Profile holds a member's cycle parameters. Only the averages and the last
// recorded period start are stored; cycle day and phase are derived.
type Profile struct {
	UserID            string    `gorm:"column:user_id;primaryKey;size:190;not null"`
	CoupleID          string    `gorm:"column:couple_id;size:190;not null;index"`
	LastPeriodStart   time.Time `gorm:"column:last_period_start;type:date;not null"`
	AvgCycleLength    int       `gorm:"column:avg_cycle_length;not null;default:28"`
	AvgPeriodLength   int       `gorm:"column:avg_period_length;not null;default:5"`
	SharedWithPartner bool      `gorm:"column:shared_with_partner;not null;default:false"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing cycle profiles.
func (Profile) TableName() string {
	return "cycle_profiles"
}

// DailyLog records one day's flow, symptoms, and notes. One row per
// (user, date); re-logging a day replaces it.
type DailyLog struct {
	LogID      string    `gorm:"column:log_id;primaryKey;size:190;not null"`
	UserID     string    `gorm:"column:user_id;size:190;not null;uniqueIndex:uidx_cycle_logs_user_date,priority:1"`
	Date       time.Time `gorm:"column:log_date;type:date;not null;uniqueIndex:uidx_cycle_logs_user_date,priority:2"`
	IsPeriod   bool      `gorm:"column:is_period;not null;default:false"`
	Flow       string    `gorm:"column:flow;size:16;not null;default:none"`
	SymptomIDs []uint    `gorm:"column:symptom_ids;serializer:json"`
	Notes      string    `gorm:"column:notes;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName exposes the table backing daily logs.
func (DailyLog) TableName() string {
	return "cycle_daily_logs"
}
