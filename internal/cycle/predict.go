package cycle

import "time"

// Phase buckets a cycle day into one of four fixed ranges.
type Phase string

const (
	PhaseMenstrual  Phase = "menstrual"
	PhaseFollicular Phase = "follicular"
	PhaseOvulatory  Phase = "ovulatory"
	PhaseLuteal     Phase = "luteal"
)

// Defaults applied when a profile omits its averages.
const (
	DefaultCycleLength  = 28
	DefaultPeriodLength = 5
)

// PhaseForDay buckets a 1-indexed cycle day by the fixed thresholds:
// menstrual through day 5, follicular through day 13, ovulatory on days
// 14 and 15, luteal afterwards.
func PhaseForDay(day int) Phase {
	switch {
	case day <= 5:
		return PhaseMenstrual
	case day <= 13:
		return PhaseFollicular
	case day == 14 || day == 15:
		return PhaseOvulatory
	default:
		return PhaseLuteal
	}
}

// CycleDay returns the 1-indexed position within the cycle:
// ((daysSince(lastPeriodStart)) mod cycleLength) + 1, clamped to
// [1, cycleLength]. A future start date clamps to day 1.
func CycleDay(today, lastPeriodStart time.Time, cycleLength int) int {
	if cycleLength <= 0 {
		cycleLength = DefaultCycleLength
	}
	elapsed := daysBetween(lastPeriodStart, today)
	if elapsed < 0 {
		return 1
	}
	day := (elapsed % cycleLength) + 1
	if day < 1 {
		return 1
	}
	if day > cycleLength {
		return cycleLength
	}
	return day
}

// NextPeriodStart projects the next period start by adding
// cycleLength x (elapsedCycles + 1) days to the last recorded start.
func NextPeriodStart(today, lastPeriodStart time.Time, cycleLength int) time.Time {
	if cycleLength <= 0 {
		cycleLength = DefaultCycleLength
	}
	elapsed := daysBetween(lastPeriodStart, today)
	if elapsed < 0 {
		elapsed = 0
	}
	elapsedCycles := elapsed / cycleLength
	return truncateToDate(lastPeriodStart).AddDate(0, 0, cycleLength*(elapsedCycles+1))
}

func daysBetween(from, to time.Time) int {
	return int(truncateToDate(to).Sub(truncateToDate(from)).Hours() / 24)
}

func truncateToDate(value time.Time) time.Time {
	year, month, day := value.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
