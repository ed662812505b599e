// Package daykey converts between time.Time and the YYYY-MM-DD calendar-day
// keys used by tasks, stats and streaks. Days are local-time days.
package daykey

import "time"

const Layout = "2006-01-02"

func Key(t time.Time) string {
	return t.Local().Format(Layout)
}

func Parse(key string) (time.Time, error) {
	return time.ParseInLocation(Layout, key, time.Local)
}

// Yesterday returns the key of the day before t.
func Yesterday(t time.Time) string {
	return Key(t.Local().AddDate(0, 0, -1))
}

// Between returns the keys from..to inclusive. It returns nil when to is
// before from.
func Between(from, to time.Time) []string {
	start := midnight(from)
	end := midnight(to)
	var keys []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		keys = append(keys, d.Format(Layout))
	}
	return keys
}

// LastNDays returns n keys ending with t's day, oldest first.
func LastNDays(t time.Time, n int) []string {
	if n <= 0 {
		return nil
	}
	return Between(t.Local().AddDate(0, 0, -(n-1)), t)
}

// Week returns the seven keys of t's week, starting on Monday.
func Week(t time.Time) []string {
	d := midnight(t)
	offset := (int(d.Weekday()) + 6) % 7
	monday := d.AddDate(0, 0, -offset)
	return Between(monday, monday.AddDate(0, 0, 6))
}

func midnight(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
