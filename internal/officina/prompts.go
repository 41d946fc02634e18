package officina

// Customer-facing texts for each questionnaire step.

const WelcomePrompt = `Hi 👋
I'm the workshop assistant.
I'll ask you a few quick questions so we can help you.`

const VehiclePrompt = `🚗 What car do you have?
(Make and model)`

const IssuePrompt = `🔧 What kind of problem do you have?

1️⃣ Car stopped / strange noises
2️⃣ Service / check-up
3️⃣ Quote / information

Reply with 1, 2 or 3`

const UrgencyPrompt = `🚨 How urgent is it?

1. Car won't start
2. Can still drive
3. It's just a check

Reply with 1, 2 or 3`

const SymptomsPrompt = `Any warning lights or odd behavior you noticed?`

const TimePrompt = `🗓 When would you prefer to bring it in?
(e.g. weekday mornings)`

const ServicePrompt = `What kind of service do you need?`

const DiagnosisPrompt = `Do you already have a diagnosis, or do you need an inspection first?`

const InvalidOptionPrompt = "Please reply with 1, 2 or 3"

const FallbackPrompt = "Sorry, I didn't understand. Please try again."

const ClosingPrompt = `Perfect, we've taken your request 👍
We'll get back to you shortly on this number.`

// PickupMessage is sent automatically when the owner completes a request.
const PickupMessage = `🚗 Your car is ready for pickup.
Thank you for choosing our workshop!`

// Option sets for the numbered steps. Validation is strict: anything
// outside these keys re-prompts without advancing the conversation.
var issueOptions = map[string]string{
	"1": "Car stopped / strange noises",
	"2": "Service / check-up",
	"3": "Quote / information",
}

// UrgencyCarWontStart is the only urgency answer that classifies as URGENT.
const UrgencyCarWontStart = "car won't start"

var urgencyOptions = map[string]string{
	"1": UrgencyCarWontStart,
	"2": "can still drive",
	"3": "it's just a check",
}
