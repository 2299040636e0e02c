package challenge

// Outcome classifies a Tick.
type Outcome int

const (
	// OutcomeIgnored means no challenge was active; nothing changed.
	OutcomeIgnored Outcome = iota
	// OutcomePending means the challenge is still running.
	OutcomePending
	// OutcomeSucceeded means the player performed the expression in time.
	OutcomeSucceeded
	// OutcomeExpired means the time budget ran out.
	OutcomeExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomePending:
		return "pending"
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// TickResult is the engine's answer to one signal sample.
type TickResult struct {
	Outcome Outcome

	// Challenge is the challenge the sample was evaluated against.
	// Zero when Outcome is OutcomeIgnored.
	Challenge Challenge

	// FractionLeft is the share of the time budget remaining.
	FractionLeft float64

	// LivePoints is what a success right now would earn.
	LivePoints int

	// PointsAwarded is set only for OutcomeSucceeded.
	PointsAwarded int
}

// Transition reports whether the tick ended the challenge.
func (r TickResult) Transition() bool {
	return r.Outcome == OutcomeSucceeded || r.Outcome == OutcomeExpired
}
