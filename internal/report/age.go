package report

import (
	"fmt"
	"time"
)

// AgeInMonths counts whole calendar months between birth and now without any day-of-month
// adjustment: (year delta * 12) + month delta.
func AgeInMonths(birth, now time.Time) int {
	return (now.Year()-birth.Year())*12 + int(now.Month()) - int(birth.Month())
}

// AgeLabel renders an age as "N months" below one year and "N years" otherwise. A birth date
// after now counts as zero months.
func AgeLabel(birth, now time.Time) string {
	months := AgeInMonths(birth, now)
	if months < 0 {
		months = 0
	}
	if months < 12 {
		return plural(months, "month")
	}
	return plural(months/12, "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
