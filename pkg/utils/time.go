package utils

import (
	"fmt"
	"time"
)

// DayLink is a labelled recent date, used for the transaction view's
// quick links ("-1 day" etc).
type DayLink struct {
	Label string `json:"label"`
	Date  string `json:"date"`
}

// RecentDays returns the n days before now, most recent first.
func RecentDays(now time.Time, n int) []DayLink {
	links := make([]DayLink, 0, n)
	for i := 1; i <= n; i++ {
		label := fmt.Sprintf("-%d days", i)
		if i == 1 {
			label = "-1 day"
		}
		links = append(links, DayLink{
			Label: label,
			Date:  now.AddDate(0, 0, -i).Format("2006-01-02"),
		})
	}
	return links
}
