package cli

type View string

const (
	ViewWelcome   View = "welcome"
	ViewLogin     View = "login"
	ViewRegister  View = "register"
	ViewDashboard View = "dashboard"
)

type MessageKind string

const (
	MessageInfo  MessageKind = "info"
	MessageError MessageKind = "error"
)

// Message is a line of feedback for the user.
type Message struct {
	Kind MessageKind
	Text string
}

func (m Message) String() string {
	if m.Kind == MessageError {
		return "error: " + m.Text
	}
	return m.Text
}
