package vpn

import (
	"strings"

	"github.com/nkurtalj/openvpn-manager/common"
)

// ClassifierState is the state of the log classifier.
type ClassifierState int

const (
	// StateWaiting is the initial state; no terminal marker seen yet.
	StateWaiting ClassifierState = iota
	// StateEstablished is terminal: the success marker was seen.
	StateEstablished
	// StateFailed is terminal: a failure marker was seen.
	StateFailed
)

// String returns a human-readable representation of the classifier state.
func (s ClassifierState) String() string {
	switch s {
	case StateWaiting:
		return "Waiting"
	case StateEstablished:
		return "Established"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Classifier is a small finite-state machine run over the client log
// stream, one line at a time. Matching is a case-sensitive substring
// comparison, first match wins, no backtracking. Once a terminal state is
// reached further lines are ignored.
type Classifier struct {
	state ClassifierState
}

// NewClassifier returns a classifier in the initial Waiting state.
func NewClassifier() *Classifier {
	return &Classifier{state: StateWaiting}
}

// State returns the current classifier state.
func (c *Classifier) State() ClassifierState {
	return c.state
}

// Done reports whether the classifier has reached a terminal state.
func (c *Classifier) Done() bool {
	return c.state != StateWaiting
}

// Feed advances the classifier with one log line and returns the
// resulting state.
func (c *Classifier) Feed(line string) ClassifierState {
	if c.state != StateWaiting {
		return c.state
	}

	if strings.Contains(line, common.MarkerEstablished) {
		c.state = StateEstablished
		return c.state
	}
	for _, marker := range common.FailureMarkers {
		if strings.Contains(line, marker) {
			c.state = StateFailed
			return c.state
		}
	}

	return c.state
}

// Outcome maps the final classifier state to a session outcome. End of
// stream without a terminal transition is Indeterminate, which callers
// treat as a failed attempt.
func (c *Classifier) Outcome() Outcome {
	switch c.state {
	case StateEstablished:
		return OutcomeEstablished
	case StateFailed:
		return OutcomeFailed
	default:
		return OutcomeIndeterminate
	}
}
