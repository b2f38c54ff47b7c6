package risk

import (
	"time"
)

// Level buckets a no-show probability.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

const (
	baseNoShow   = 0.12
	longLeadDays = 14
)

// Request describes the slot being assessed.
type Request struct {
	Date           string // 2006-01-02
	Time           string // 15:04
	Specialization string
	Problem        string
}

// Assessment is an advisory estimate attached to an appointment. It never
// blocks a booking.
type Assessment struct {
	NoShowProbability float64 `json:"noShowProbability"`
	PeakHour          bool    `json:"peakHour"`
	Level             Level   `json:"level"`
	Reason            string  `json:"reason,omitempty"`
	Source            string  `json:"source"`
}

// Heuristic scores a slot from coarse calendar features: hour of day, weekday
// and how far ahead the appointment is booked.
func Heuristic(req Request, now time.Time) Assessment {
	day, errDay := time.Parse("2006-01-02", req.Date)
	clock, errClock := time.Parse("15:04", req.Time)
	if errDay != nil || errClock != nil {
		return Assessment{NoShowProbability: baseNoShow, Level: levelFor(baseNoShow), Reason: "unparsed slot", Source: "heuristic"}
	}

	p := baseNoShow
	hour := clock.Hour()
	switch {
	case hour < 9:
		p += 0.08
	case hour >= 16:
		p += 0.06
	}
	switch day.Weekday() {
	case time.Monday, time.Friday:
		p += 0.04
	case time.Saturday, time.Sunday:
		p += 0.07
	}

	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if lead := day.Sub(today).Hours() / 24; lead > longLeadDays {
		p += 0.1
	}
	if p > 0.95 {
		p = 0.95
	}

	return Assessment{
		NoShowProbability: round2(p),
		PeakHour:          isPeakHour(hour),
		Level:             levelFor(p),
		Source:            "heuristic",
	}
}

// 上午十点到十二点、下午两点到四点是门诊高峰。
func isPeakHour(hour int) bool {
	return (hour >= 10 && hour < 12) || (hour >= 14 && hour < 16)
}

func levelFor(p float64) Level {
	switch {
	case p >= 0.3:
		return LevelHigh
	case p >= 0.2:
		return LevelMedium
	default:
		return LevelLow
	}
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
