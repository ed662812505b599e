package store

// Persisted key space. The namespace is flat and shared by every process.
const (
	KeyPomodoroState      = "pomodoro_state"
	KeyPomodoroNotify     = "pomodoro_notify"
	KeyCustomFocusMinutes = "custom_focus_minutes"
	KeyCustomBreakMinutes = "custom_break_minutes"
	KeyTabLimiterEnabled  = "tab_limiter_enabled"
	KeyMaxTabs            = "max_tabs"
	KeyBlockedSites       = "blocked_sites"
	KeyAutoBlockerPref    = "auto_blocker_pref"
	KeyProEnabled         = "pro_enabled"
	KeyTasks              = "tasks"
	KeyStreak             = "streak"
	KeyTheme              = "theme"
	KeySoundEnabled       = "sound_enabled"
	KeySoundSelected      = "sound_selected"
	KeySoundVolume        = "sound_volume"
	KeyAlarms             = "alarms"

	// StatsPrefix is followed by a YYYY-MM-DD day key.
	StatsPrefix = "stats_"
)

// StatsKey returns the key of the stats record for day.
func StatsKey(day string) string {
	return StatsPrefix + day
}
