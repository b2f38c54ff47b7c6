package dialogue

import (
	"github.com/zhouzirui/clinic-desk/backend/internal/analysis/intent"
	"github.com/zhouzirui/clinic-desk/backend/internal/analysis/slot"
)

// Flow names.
const (
	FlowBooking   = "booking"
	FlowReception = "reception"
)

// BookingFlow 预约对话：姓名、电话、病情描述、日期、时间，确认后完成。
func BookingFlow() *Flow {
	return &Flow{
		Name: FlowBooking,
		Fields: []FieldSpec{
			{
				Name:   "patient_name",
				Kind:   slot.KindName,
				Label:  "Name",
				Prompt: "What's your name?",
				Reprompts: map[slot.Reason]string{
					slot.ReasonMissing:  "Please provide your full name.",
					slot.ReasonTooShort: "Please provide your full name.",
				},
			},
			{
				Name:   "phone",
				Kind:   slot.KindPhone,
				Label:  "Phone",
				Prompt: "Nice to meet you, {patient_name}! What's your phone number?",
				Reprompts: map[slot.Reason]string{
					slot.ReasonMissing: "Please provide a valid 10-digit phone number.",
				},
			},
			{
				Name:   "problem",
				Kind:   slot.KindText,
				Label:  "Problem",
				Prompt: "Thank you! Can you briefly describe your health problem or reason for the appointment?",
				Reprompts: map[slot.Reason]string{
					slot.ReasonMissing: "Please provide a brief description of your health problem (at least 5 characters).",
				},
			},
			{
				Name:   "date",
				Kind:   slot.KindDate,
				Label:  "Date",
				Prompt: "Got it! When would you like to schedule the appointment? Please provide the date (DD-MM-YYYY or YYYY-MM-DD).",
				Reprompts: map[slot.Reason]string{
					slot.ReasonMissing:   "Please provide a valid date in DD-MM-YYYY or YYYY-MM-DD format.",
					slot.ReasonBadFormat: "Invalid date format. Please use DD-MM-YYYY or YYYY-MM-DD.",
					slot.ReasonPastDate:  "Please select a future date.",
				},
			},
			{
				Name:   "time",
				Kind:   slot.KindTime,
				Label:  "Time",
				Prompt: "Great! You've selected {date}. What time would you prefer? (Please use 24-hour format like 14:30 or 2:30 PM)",
				Reprompts: map[slot.Reason]string{
					slot.ReasonMissing:     "Please provide a valid time (e.g., 14:30 or 2:30 PM).",
					slot.ReasonUnavailable: "Sorry, {date} at that time is not available. Please choose another time.",
				},
			},
		},
		Router: intent.NewRouter(intent.BookingRules()...),
		Prompts: Prompts{
			Greeting:      "Hello! I'm here to help you book an appointment. Say 'hi' or 'book appointment' to start.",
			Start:         "Hello! I'm your clinic assistant. I'll help you book an appointment. ",
			SummaryIntro:  "Perfect! Let me confirm your details:\n\n",
			SummaryOutro:  "\nType 'yes' to confirm or 'no' to start over.",
			Noted:         "Thanks, I've noted your ",
			Complete:      "Excellent! Your appointment details have been collected. The system will now check availability and confirm your booking.",
			AfterComplete: "Your appointment has been processed. Is there anything else I can help you with?",
			Restart:       "No problem! Let's start over. Say 'hi' or 'book appointment' when you're ready.",
			Closing:       "Thank you! Have a great day.",
		},
		RestartOnCancel: true,
	}
}

// ReceptionFlow 前台接待：可以回答营业时间、地址、联系方式，也可以按日期、时间、姓名、电话、原因的顺序预约。
func ReceptionFlow() *Flow {
	return &Flow{
		Name: FlowReception,
		Fields: []FieldSpec{
			{
				Name:   "date",
				Kind:   slot.KindDate,
				Label:  "Date",
				Prompt: "What date would you like to schedule the appointment?",
				Reprompts: map[slot.Reason]string{
					slot.ReasonMissing:   "Could you tell me the date, for example 2026-11-03 or 03-11-2026?",
					slot.ReasonBadFormat: "I didn't catch that date. Please use a format like 2026-11-03 or 03-11-2026.",
					slot.ReasonPastDate:  "That date has already passed. Which upcoming date works for you?",
				},
			},
			{
				Name:   "time",
				Kind:   slot.KindTime,
				Label:  "Time",
				Prompt: "What time would work best for you?",
				Reprompts: map[slot.Reason]string{
					slot.ReasonMissing:     "What time would you like? For example 10:30 or 2 PM.",
					slot.ReasonBadFormat:   "I didn't catch that time. Please say something like 10:30 or 2 PM.",
					slot.ReasonUnavailable: "I'm sorry, that time on {date} is already taken. Could you pick another time?",
				},
			},
			{
				Name:   "name",
				Kind:   slot.KindName,
				Label:  "Name",
				Prompt: "Great! I have the date and time. May I have your name, please?",
				Reprompts: map[slot.Reason]string{
					slot.ReasonMissing: "May I have your full name, please?",
				},
			},
			{
				Name:   "phone",
				Kind:   slot.KindPhone,
				Label:  "Phone",
				Prompt: "Thanks, {name}. What's the best phone number to reach you?",
				Reprompts: map[slot.Reason]string{
					slot.ReasonMissing:     "Could you give me a 10-digit phone number?",
					slot.ReasonWrongLength: "That number doesn't look right. Please give me a 10-digit phone number.",
				},
			},
			{
				Name:   "reason",
				Kind:   slot.KindText,
				Label:  "Reason",
				Prompt: "And what's the reason for your visit?",
				Reprompts: map[slot.Reason]string{
					slot.ReasonMissing: "Could you briefly describe the reason for your visit?",
				},
			},
		},
		Router: intent.NewRouter(intent.ReceptionRules()...),
		Prompts: Prompts{
			Greeting:      "Hello! Thank you for calling. I can help you book an appointment or answer questions about our hours, location and contact details. What would you like to do?",
			Start:         "I'd be happy to help you book an appointment. ",
			SummaryIntro:  "Perfect! Here is what I have for {name}:\n\n",
			SummaryOutro:  "\nShall I go ahead and book it?",
			Noted:         "Thanks, I've noted your ",
			Complete:      "Your appointment is booked. We look forward to seeing you!",
			AfterComplete: "Your appointment is already booked. Thank you for calling!",
			Cancelled:     "Okay, I've cancelled that request. Thank you for calling!",
			Closing:       "You're welcome! Thank you for calling, have a wonderful day!",
			InfoFallback:  "I can tell you about our hours, location and contact details, or book an appointment. What would you like to know?",
		},
		FarewellAnywhere: true,
		Info: []InfoTopic{
			{
				Keywords: []string{"hour", "open", "closed", "close"},
				Answer:   "We're open Monday through Friday, 9 AM to 5 PM. Would you like to book an appointment?",
			},
			{
				Keywords: []string{"location", "address", "direction", "where"},
				Answer:   "We're located at 123 Main Street, Suite 100. Parking is available behind the building. Anything else I can help with?",
			},
			{
				Keywords: []string{"contact", "phone", "email", "call"},
				Answer:   "You can reach us at 555-1234 or by email at info@example.com. Anything else I can help with?",
			},
		},
	}
}

// Flows returns every built-in flow keyed by name.
func Flows() map[string]*Flow {
	return map[string]*Flow{
		FlowBooking:   BookingFlow(),
		FlowReception: ReceptionFlow(),
	}
}
