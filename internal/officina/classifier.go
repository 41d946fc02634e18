package officina

// Classify maps the collected answers to a triage category. Only a
// confirmed "car won't start" on issue 1 counts as urgent; any unexpected
// combination falls back to an appointment.
func Classify(issueCode string, urgency *string) Category {
	switch {
	case issueCode == "1" && urgency != nil && *urgency == UrgencyCarWontStart:
		return CategoryUrgent
	case issueCode == "2":
		return CategoryAppointment
	case issueCode == "3":
		return CategoryQuote
	default:
		return CategoryAppointment
	}
}
