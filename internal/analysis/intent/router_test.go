package intent

import "testing"

func TestBookingRouterClassify(t *testing.T) {
	router := NewRouter(BookingRules()...)

	cases := []struct {
		utterance string
		want      Intent
	}{
		{"hi", StartBooking},
		{"  Hello there ", StartBooking},
		{"I want to book an appointment", StartBooking},
		{"YES", Confirm},
		{"that’s right", Confirm},
		{"no", Cancel},
		{"please cancel it", Cancel},
		{"goodbye", Farewell},
		{"this is it", Unknown},
		{"I know", Unknown},
		{"", Unknown},
		{"   ", Unknown},
	}

	for _, tc := range cases {
		if got := router.Classify(tc.utterance); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.utterance, got, tc.want)
		}
	}
}

func TestPriorityOrderWinsOverMatchCount(t *testing.T) {
	router := NewRouter(BookingRules()...)

	if got := router.Classify("yes, no problem"); got != Confirm {
		t.Fatalf("expected confirm to win over cancel, got %s", got)
	}
	if got := router.Classify("no no no, yes"); got != Confirm {
		t.Fatalf("expected priority order, not match count, got %s", got)
	}
	if got := router.Classify("no thanks"); got != Cancel {
		t.Fatalf("expected cancel to win over farewell, got %s", got)
	}
}

func TestClassifyAmongRestrictsIntents(t *testing.T) {
	router := NewRouter(ReceptionRules()...)

	if got := router.ClassifyAmong("yes please", Cancel); got != Unknown {
		t.Fatalf("expected unknown when confirm is not allowed, got %s", got)
	}
	if got := router.ClassifyAmong("thanks, I'd like to book", StartBooking, AskInfo, Farewell); got != StartBooking {
		t.Fatalf("expected start booking, got %s", got)
	}
	if got := router.ClassifyAmong("yes, what are your hours?", AskInfo, Farewell); got != AskInfo {
		t.Fatalf("expected ask info, got %s", got)
	}
}

func TestReceptionRouterIgnoresBareGreeting(t *testing.T) {
	router := NewRouter(ReceptionRules()...)

	if got := router.Classify("hi"); got != Unknown {
		t.Fatalf("expected unknown for bare greeting, got %s", got)
	}
	if got := router.Classify("Where is your location?"); got != AskInfo {
		t.Fatalf("expected ask info, got %s", got)
	}
	if got := router.Classify("thank you"); got != Farewell {
		t.Fatalf("expected farewell, got %s", got)
	}
}

func TestNilRouterIsUnknown(t *testing.T) {
	var router *Router
	if got := router.Classify("yes"); got != Unknown {
		t.Fatalf("expected unknown from nil router, got %s", got)
	}
}
