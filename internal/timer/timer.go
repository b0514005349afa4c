package timer

import "fmt"

const (
	MinDuration     = 1
	MaxDuration     = 180
	DefaultDuration = 25
)

// Mode is the derived display state of a Timer.
type Mode string

const (
	ModeSetup    Mode = "setup"
	ModePaused   Mode = "paused"
	ModeActive   Mode = "active"
	ModeOvertime Mode = "overtime"
)

// Timer is a focus countdown that keeps counting into overtime once the
// configured duration has elapsed. The zero value is not usable; use New.
type Timer struct {
	durationMinutes int
	timeLeftSeconds int
	isActive        bool
	hasStarted      bool
}

// New creates a timer in setup mode with the given duration (clamped).
func New(minutes int) *Timer {
	m := clamp(minutes)
	return &Timer{
		durationMinutes: m,
		timeLeftSeconds: m * 60,
	}
}

// Toggle starts a fresh timer, or flips between running and paused.
func (t *Timer) Toggle() {
	if !t.hasStarted {
		t.hasStarted = true
		t.isActive = true
		return
	}
	t.isActive = !t.isActive
}

// Reset stops the timer and restores the full duration.
func (t *Timer) Reset() {
	t.isActive = false
	t.hasStarted = false
	t.timeLeftSeconds = t.durationMinutes * 60
}

// SetDuration changes the configured length. The live countdown only follows
// the new duration while the timer has not been started.
func (t *Timer) SetDuration(minutes int) {
	t.durationMinutes = clamp(minutes)
	if !t.hasStarted {
		t.timeLeftSeconds = t.durationMinutes * 60
	}
}

// Tick advances the countdown by one second. It is a no-op unless active.
// Returns true when the tick crossed from countdown into overtime.
func (t *Timer) Tick() bool {
	if !t.isActive {
		return false
	}
	t.timeLeftSeconds--
	return t.timeLeftSeconds == 0
}

// Mode derives the current display mode.
func (t *Timer) Mode() Mode {
	switch {
	case !t.hasStarted:
		return ModeSetup
	case !t.isActive:
		return ModePaused
	case t.timeLeftSeconds <= 0:
		return ModeOvertime
	default:
		return ModeActive
	}
}

func (t *Timer) DurationMinutes() int { return t.durationMinutes }
func (t *Timer) TimeLeftSeconds() int { return t.timeLeftSeconds }
func (t *Timer) IsActive() bool       { return t.isActive }
func (t *Timer) HasStarted() bool     { return t.hasStarted }

// ElapsedSeconds is the number of seconds counted since the last reset.
func (t *Timer) ElapsedSeconds() int {
	return t.durationMinutes*60 - t.timeLeftSeconds
}

// Format renders the remaining time as MM:SS, prefixed with "+" in overtime.
func (t *Timer) Format() string {
	return FormatSeconds(t.timeLeftSeconds)
}

// FormatSeconds renders an absolute MM:SS value with a "+" prefix for
// negative input. Minutes are not wrapped at 60.
func FormatSeconds(secs int) string {
	sign := ""
	if secs < 0 {
		sign = "+"
		secs = -secs
	}
	return fmt.Sprintf("%s%02d:%02d", sign, secs/60, secs%60)
}

func clamp(minutes int) int {
	if minutes < MinDuration {
		return MinDuration
	}
	if minutes > MaxDuration {
		return MaxDuration
	}
	return minutes
}
