package expression

// Signal is one face-tracker sample: channel name to intensity in [0,1].
type Signal map[string]float64

// Channel names reported by the face tracker.
const (
	ChannelMouthSmileLeft  = "mouthSmileLeft"
	ChannelMouthSmileRight = "mouthSmileRight"
	ChannelJawOpen         = "jawOpen"
	ChannelEyeLookOutLeft  = "eyeLookOutLeft"
	ChannelEyeLookOutRight = "eyeLookOutRight"
	ChannelBrowInnerUp     = "browInnerUp"
	ChannelEyeBlinkLeft    = "eyeBlinkLeft"
	ChannelEyeBlinkRight   = "eyeBlinkRight"
	ChannelCheekPuff       = "cheekPuff"
)

// Condition requires Channel to be present and strictly above Threshold.
type Condition struct {
	Channel   string  `json:"channel"`
	Threshold float64 `json:"threshold"`
}

// Holds reports whether the signal satisfies the condition.
func (c Condition) Holds(s Signal) bool {
	v, ok := s[c.Channel]
	if !ok {
		return false
	}
	return v > c.Threshold
}

// Rule is a named predicate over a Signal.
//
// A Rule is a plain value and is never mutated once it is part of a Catalog.
type Rule struct {
	// ID is the stable identity (kebab-case, e.g. "blink-left").
	ID string `json:"id"`

	// DisplayName is the text shown to the player.
	DisplayName string `json:"display_name"`

	// Conditions must all hold for the rule to match. Empty never matches.
	Conditions []Condition `json:"conditions"`

	// ConflictsWith names a confusable rule in the same catalog, or "".
	ConflictsWith string `json:"conflicts_with,omitempty"`
}

// Matches reports whether every condition holds for s.
func (r Rule) Matches(s Signal) bool {
	if len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		if !c.Holds(s) {
			return false
		}
	}
	return true
}

// Channels returns the channel names the rule reads, in declaration order.
func (r Rule) Channels() []string {
	out := make([]string, len(r.Conditions))
	for i, c := range r.Conditions {
		out[i] = c.Channel
	}
	return out
}
