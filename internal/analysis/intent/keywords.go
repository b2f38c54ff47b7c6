package intent

var (
	confirmKeywords = []string{"yes", "yeah", "yep", "confirm", "confirmed", "correct", "that's right"}
	cancelKeywords  = []string{"no", "nope", "cancel", "start over", "restart"}
	bookingKeywords = []string{"appointment", "book", "booking", "schedule", "meeting", "reservation"}
	greetKeywords   = []string{"hi", "hello", "hey", "start"}
	infoKeywords    = []string{"hours", "open", "closed", "location", "address", "contact", "directions"}
	byeKeywords     = []string{"bye", "goodbye", "thanks", "thank you", "that's all"}
)

// BookingRules is the keyword set used by the appointment booking flow, where a
// plain greeting already starts the booking.
func BookingRules() []Rule {
	return []Rule{
		{Intent: Confirm, Keywords: confirmKeywords},
		{Intent: Cancel, Keywords: cancelKeywords},
		{Intent: StartBooking, Keywords: append(append([]string(nil), greetKeywords...), bookingKeywords...)},
		{Intent: Farewell, Keywords: byeKeywords},
	}
}

// ReceptionRules is the keyword set of the front-desk flow. Greetings alone do not
// start a booking there.
func ReceptionRules() []Rule {
	return []Rule{
		{Intent: Confirm, Keywords: confirmKeywords},
		{Intent: Cancel, Keywords: cancelKeywords},
		{Intent: StartBooking, Keywords: bookingKeywords},
		{Intent: AskInfo, Keywords: infoKeywords},
		{Intent: Farewell, Keywords: byeKeywords},
	}
}
