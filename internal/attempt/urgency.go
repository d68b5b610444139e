package attempt

import "fmt"

// Urgency is the presentation tier of the countdown.
type Urgency int

const (
	UrgencyNormal Urgency = iota
	UrgencyWarning
	UrgencyUrgent
)

const (
	warningThreshold = 10 * 60
	urgentThreshold  = 5 * 60
)

func (u Urgency) String() string {
	switch u {
	case UrgencyWarning:
		return "warning"
	case UrgencyUrgent:
		return "urgent"
	default:
		return "normal"
	}
}

// UrgencyFor returns urgent at five minutes or less, warning at ten or less.
func UrgencyFor(remainingSeconds int) Urgency {
	switch {
	case remainingSeconds <= urgentThreshold:
		return UrgencyUrgent
	case remainingSeconds <= warningThreshold:
		return UrgencyWarning
	default:
		return UrgencyNormal
	}
}

// FormatClock renders seconds as MM:SS, or H:MM:SS past an hour.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	h, m, s := seconds/3600, (seconds%3600)/60, seconds%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
