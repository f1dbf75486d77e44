package logic

import "time"

// DefaultSunriseWindow is the length of both the rising and the fading ramp.
const DefaultSunriseWindow = 30 * time.Minute

// MaxBrightness is the full-scale sunrise light level.
const MaxBrightness = 255

// SunriseBrightness computes the sunrise light level for the given state.
//
// The post-alarm window is checked first: full brightness while ringing, then a
// linear fade to zero over window since the ring stopped. Otherwise, with the
// alarm armed, the light ramps up linearly over the window before AlarmTime.
func SunriseBrightness(now time.Time, s State, window time.Duration) uint8 {
	if window <= 0 {
		return 0
	}

	if !s.PreviousRingTime.IsZero() {
		since := now.Sub(s.PreviousRingTime)
		if since >= 0 && since < window {
			if s.Ringing && !s.Dismissed {
				return MaxBrightness
			}
			return ramp(window-since, window)
		}
	}

	if s.AlarmOn {
		left := s.AlarmTime.Sub(now)
		if left < window {
			return ramp(window-left, window)
		}
	}

	return 0
}

// ramp returns MaxBrightness*part/window clamped to [0, MaxBrightness].
func ramp(part, window time.Duration) uint8 {
	if part <= 0 {
		return 0
	}
	if part >= window {
		return MaxBrightness
	}
	return uint8(int64(MaxBrightness) * int64(part) / int64(window))
}
