package doctor

import "time"

// ClockLayout is the layout of AvailableFrom, AvailableTo and slot times.
const ClockLayout = "15:04"

// Doctor is a bookable practitioner and the daily window they see patients in.
// Times are "15:04" strings in the clinic's timezone.
type Doctor struct {
	ID             string `json:"id" mapstructure:"id"`
	Name           string `json:"name" mapstructure:"name"`
	Specialization string `json:"specialization" mapstructure:"specialization"`
	AvailableFrom  string `json:"availableFrom" mapstructure:"available_from"`
	AvailableTo    string `json:"availableTo" mapstructure:"available_to"`
}

// Covers reports whether an appointment may start at clock. The window is
// half-open: a slot starting at AvailableTo would end after hours.
func (d Doctor) Covers(clock string) bool {
	at, err := time.Parse(ClockLayout, clock)
	if err != nil {
		return false
	}
	from, errFrom := time.Parse(ClockLayout, d.AvailableFrom)
	to, errTo := time.Parse(ClockLayout, d.AvailableTo)
	if errFrom != nil || errTo != nil {
		return false
	}
	return !at.Before(from) && at.Before(to)
}

// Seed 默认医生名单，未配置名单文件时使用。
func Seed() []Doctor {
	return []Doctor{
		{ID: "dr-sharma", Name: "Dr. Priya Sharma", Specialization: "Cardiologist", AvailableFrom: "09:00", AvailableTo: "17:00"},
		{ID: "dr-kumar", Name: "Dr. Rajesh Kumar", Specialization: "Dermatologist", AvailableFrom: "10:00", AvailableTo: "18:00"},
		{ID: "dr-patel", Name: "Dr. Anjali Patel", Specialization: "Pediatrician", AvailableFrom: "09:30", AvailableTo: "16:30"},
		{ID: "dr-singh", Name: "Dr. Vikram Singh", Specialization: "Orthopedic", AvailableFrom: "08:00", AvailableTo: "15:00"},
		{ID: "dr-reddy", Name: "Dr. Meera Reddy", Specialization: "General Physician", AvailableFrom: "09:00", AvailableTo: "18:00"},
	}
}
