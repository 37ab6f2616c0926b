package domain

import "time"

const (
	// DaysPerContractMonth approximates a contract month; calendar months are not used.
	DaysPerContractMonth = 30

	// ExpiringSoonDays is the inclusive upper bound of the ExpiringSoon window.
	ExpiringSoonDays = 7

	MinContractMonths = 1
	MaxContractMonths = 12

	day = 24 * time.Hour
)

// DeriveEndDate returns start extended by 30 days per contract month
func DeriveEndDate(start time.Time, months int) time.Time {
	return start.Add(time.Duration(DaysPerContractMonth*months) * day)
}

// DaysUntil returns the whole days from now until end, rounded toward negative infinity.
// A contract ending 1 hour ago is -1 days away, one ending in 23 hours is 0.
func DaysUntil(end, now time.Time) int {
	d := end.Sub(now)
	days := int(d / day)
	if d < 0 && d%day != 0 {
		days--
	}
	return days
}

// DeriveStatus maps a contract end date to its status at now
func DeriveStatus(end, now time.Time) ProductStatus {
	switch days := DaysUntil(end, now); {
	case days < 0:
		return StatusExpired
	case days <= ExpiringSoonDays:
		return StatusExpiringSoon
	default:
		return StatusActive
	}
}

// ValidContractMonths reports whether months is within the sellable range
func ValidContractMonths(months int) bool {
	return months >= MinContractMonths && months <= MaxContractMonths
}
