package status

// SignalKind is the normalized input vocabulary of the state machine.
type SignalKind string

const (
	SignalSent    SignalKind = "SENT"
	SignalOpened  SignalKind = "OPENED"
	SignalReplied SignalKind = "REPLIED"
	SignalManual  SignalKind = "MANUAL"
)

// Signal is one event driving a candidate's status. Target is only read for SignalManual.
type Signal struct {
	Kind   SignalKind
	Target Status
}

var (
	SigSent    = Signal{Kind: SignalSent}
	SigOpened  = Signal{Kind: SignalOpened}
	SigReplied = Signal{Kind: SignalReplied}
)

// Manual builds an override signal that sets target unconditionally.
func Manual(target Status) Signal {
	return Signal{Kind: SignalManual, Target: target}
}

func (s Signal) String() string {
	if s.Kind == SignalManual {
		return string(s.Kind) + "(" + string(s.Target) + ")"
	}
	return string(s.Kind)
}

// Outcome is the result of applying a signal.
// OutOfOrder marks signals that arrived before the send they depend on; they never
// change status and are surfaced for logging.
type Outcome struct {
	Next       Status
	Changed    bool
	OutOfOrder bool
}

// Transition computes the next status for current under sig. It is pure and total:
// unknown signal kinds and invalid current values leave the status unchanged.
func Transition(current Status, sig Signal) Outcome {
	same := Outcome{Next: current}

	switch sig.Kind {
	case SignalManual:
		if !sig.Target.Valid() {
			return same
		}
		return Outcome{Next: sig.Target, Changed: sig.Target != current}

	case SignalSent:
		if current == Pending {
			return Outcome{Next: Emailed, Changed: true}
		}
		return same

	case SignalOpened:
		switch current {
		case Emailed:
			return Outcome{Next: EmailOpened, Changed: true}
		case Pending:
			same.OutOfOrder = true
		}
		return same

	case SignalReplied:
		switch current {
		case Emailed, EmailOpened:
			return Outcome{Next: Replied, Changed: true}
		case Pending:
			same.OutOfOrder = true
		}
		return same
	}

	return same
}

// Next is Transition without the bookkeeping.
func Next(current Status, sig Signal) Status {
	return Transition(current, sig).Next
}
