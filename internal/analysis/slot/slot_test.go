package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedValidator() Validator {
	now := time.Date(2026, time.October, 17, 18, 45, 0, 0, time.UTC)
	return Validator{Now: func() time.Time { return now }}
}

func TestExtractPhone(t *testing.T) {
	got, ok := Extract(KindPhone, "my number is 98765-43210 thanks")
	require.True(t, ok)
	assert.Equal(t, "9876543210", got)

	got, ok = Extract(KindPhone, "call 987 654 3210")
	require.True(t, ok)
	assert.Equal(t, "9876543210", got)

	_, ok = Extract(KindPhone, "12345")
	assert.False(t, ok, "short numbers are an extraction miss")

	_, ok = Extract(KindPhone, "98765432101")
	assert.False(t, ok, "an 11 digit run is not a phone number")
}

func TestExtractDateRuleOrder(t *testing.T) {
	got, ok := Extract(KindDate, "on 15/03/2099 please")
	require.True(t, ok)
	assert.Equal(t, "15/03/2099", got)

	got, ok = Extract(KindDate, "how about 2099-05-01?")
	require.True(t, ok)
	assert.Equal(t, "2099-05-01", got)

	got, ok = Extract(KindDate, "  next tuesday ")
	require.True(t, ok)
	assert.Equal(t, "next tuesday", got, "falls back to the trimmed utterance")

	_, ok = Volunteered(KindDate, "next tuesday")
	assert.False(t, ok)
}

func TestExtractTime(t *testing.T) {
	cases := map[string]string{
		"at 2:30 pm":        "2:30 pm",
		"2:30PM works":      "2:30 pm",
		"230pm":             "2:30 pm",
		"14:30 is fine":     "14:30",
		"around 4 pm":       "4:00 pm",
		"10:15:00":          "10:15:00",
		"sometime tomorrow": "sometime tomorrow",
	}
	for utterance, want := range cases {
		got, ok := Extract(KindTime, utterance)
		require.True(t, ok, utterance)
		assert.Equal(t, want, got, utterance)
	}
}

func TestExtractName(t *testing.T) {
	got, ok := Extract(KindName, "Alex Doe")
	require.True(t, ok)
	assert.Equal(t, "Alex Doe", got)

	got, ok = Extract(KindName, "Hi, my name is Alex, nice to meet you")
	require.True(t, ok)
	assert.Equal(t, "Alex", got)

	got, ok = Volunteered(KindName, "I’m Sam and I need a checkup")
	require.True(t, ok)
	assert.Equal(t, "Sam", got)

	_, ok = Volunteered(KindName, "Alex Doe")
	assert.False(t, ok, "bare names are only taken when asked for")

	_, ok = Extract(KindName, "   ")
	assert.False(t, ok)
}

func TestSelfIntroductionSkipsNonNames(t *testing.T) {
	for _, utterance := range []string{
		"Hi, I'm here to book an appointment",
		"I am not sure, maybe 12:30 am",
		"i'm looking for a slot tomorrow",
	} {
		_, ok := Volunteered(KindName, utterance)
		assert.False(t, ok, utterance)
	}

	got, ok := Volunteered(KindName, "sorry, I'm late. I'm Priya")
	require.True(t, ok)
	assert.Equal(t, "Priya", got)
}

func TestStatedName(t *testing.T) {
	got, ok := StatedName("hello, call me Sam please")
	require.True(t, ok)
	assert.Equal(t, "Sam", got)

	_, ok = StatedName("I'm Sam")
	assert.False(t, ok)
}

func TestTextIsNeverVolunteered(t *testing.T) {
	_, ok := Volunteered(KindText, "recurring headache")
	assert.False(t, ok)

	got, ok := Extract(KindText, " recurring headache ")
	require.True(t, ok)
	assert.Equal(t, "recurring headache", got)
}

func TestValidateDate(t *testing.T) {
	v := fixedValidator()

	assert.Equal(t, Accepted("2099-03-15"), v.Validate(KindDate, "15/03/2099"))
	assert.Equal(t, Accepted("2099-05-01"), v.Validate(KindDate, "2099-05-01"))
	assert.Equal(t, Accepted("2099-05-01"), v.Validate(KindDate, "2099/5/1"))
	assert.Equal(t, Accepted("2099-05-01"), v.Validate(KindDate, "01-05-2099"))
	assert.Equal(t, Rejected(ReasonPastDate), v.Validate(KindDate, "2020-01-01"))
	assert.Equal(t, Rejected(ReasonBadFormat), v.Validate(KindDate, "next tuesday"))
	assert.Equal(t, Rejected(ReasonBadFormat), v.Validate(KindDate, "31-02-2099"))
	assert.Equal(t, Rejected(ReasonMissing), v.Validate(KindDate, " "))
}

func TestValidateDateAcceptsToday(t *testing.T) {
	v := fixedValidator()

	assert.Equal(t, Accepted("2026-10-17"), v.Validate(KindDate, "2026-10-17"))
	assert.Equal(t, Rejected(ReasonPastDate), v.Validate(KindDate, "16/10/2026"))
}

func TestValidateDateInLocation(t *testing.T) {
	v := Validator{
		Now: func() time.Time { return time.Date(2026, time.October, 17, 18, 45, 0, 0, time.UTC) },
		Loc: time.FixedZone("UTC+10", 10*60*60),
	}
	assert.Equal(t, Rejected(ReasonPastDate), v.Validate(KindDate, "2026-10-17"))
	assert.Equal(t, Accepted("2026-10-18"), v.Validate(KindDate, "18/10/2026"))
}

func TestValidateTime(t *testing.T) {
	v := fixedValidator()

	assert.Equal(t, Accepted("14:30"), v.Validate(KindTime, "2:30 pm"))
	assert.Equal(t, Accepted("14:30"), v.Validate(KindTime, "2:30PM"))
	assert.Equal(t, Accepted("14:30"), v.Validate(KindTime, "14:30"))
	assert.Equal(t, Accepted("09:05"), v.Validate(KindTime, "9:05"))
	assert.Equal(t, Accepted("10:15"), v.Validate(KindTime, "10:15:00"))
	assert.Equal(t, Accepted("00:30"), v.Validate(KindTime, "12:30 am"))
	assert.Equal(t, Rejected(ReasonBadFormat), v.Validate(KindTime, "25:61"))
	assert.Equal(t, Rejected(ReasonBadFormat), v.Validate(KindTime, "teatime"))
}

func TestValidatePhone(t *testing.T) {
	v := fixedValidator()

	assert.Equal(t, Accepted("9876543210"), v.Validate(KindPhone, "98765 43210"))
	assert.Equal(t, Rejected(ReasonWrongLength), v.Validate(KindPhone, "12345"))
	assert.Equal(t, Rejected(ReasonBadFormat), v.Validate(KindPhone, "98765x3210"))
	assert.Equal(t, Rejected(ReasonMissing), v.Validate(KindPhone, " - "))
}

func TestValidateLengths(t *testing.T) {
	v := fixedValidator()

	assert.Equal(t, Accepted("Al"), v.Validate(KindName, "  Al "))
	assert.Equal(t, Rejected(ReasonTooShort), v.Validate(KindName, "A"))
	assert.Equal(t, Accepted("recurring headache"), v.Validate(KindText, "recurring headache"))
	assert.Equal(t, Rejected(ReasonTooShort), v.Validate(KindText, "flu"))
}

func TestValidateIsDeterministic(t *testing.T) {
	v := fixedValidator()
	first := v.Validate(KindDate, "2020-01-01")
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, v.Validate(KindDate, "2020-01-01"))
	}
}
