package checkout

type State string

const (
	StateShippingEntry State = "shipping_entry"
	StatePaymentEntry  State = "payment_entry"
	StateReview        State = "review"
	StateSubmitting    State = "submitting"
	StateCompleted     State = "completed"
	StateFailed        State = "failed"
)

var transitions = map[State][]State{
	StateShippingEntry: {StatePaymentEntry},
	StatePaymentEntry:  {StateReview, StateShippingEntry},
	StateReview:        {StateSubmitting, StatePaymentEntry},
	StateSubmitting:    {StateCompleted, StateFailed},
	StateFailed:        {StateSubmitting, StatePaymentEntry},
	StateCompleted:     {},
}

func CanTransitionTo(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s State) IsTerminal() bool {
	return s == StateCompleted
}

func (s State) String() string {
	return string(s)
}
