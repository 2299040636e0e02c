package expression

// Built-in rule IDs.
const (
	RuleSmile          = "smile"
	RuleJawOpen        = "jaw-open"
	RuleLookLeft       = "look-left"
	RuleLookRight      = "look-right"
	RuleEyebrowsRaised = "eyebrows-raised"
	RuleBlinkLeft      = "blink-left"
	RuleBlinkRight     = "blink-right"
	RuleCheekPuff      = "cheek-puff"
)

// DefaultRules returns the built-in rule table. Thresholds are tuned by hand
// against a phone-class face tracker.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:          RuleSmile,
			DisplayName: "Smile",
			Conditions: []Condition{
				{Channel: ChannelMouthSmileLeft, Threshold: 0.5},
				{Channel: ChannelMouthSmileRight, Threshold: 0.5},
			},
		},
		{
			ID:          RuleJawOpen,
			DisplayName: "Open Wide",
			// 0.4 is casual breathing
			Conditions: []Condition{{Channel: ChannelJawOpen, Threshold: 0.7}},
		},
		{
			// Tracker channels are mirrored relative to the player.
			ID:          RuleLookLeft,
			DisplayName: "Look Left",
			Conditions:  []Condition{{Channel: ChannelEyeLookOutRight, Threshold: 0.9}},
		},
		{
			ID:          RuleLookRight,
			DisplayName: "Look Right",
			Conditions:  []Condition{{Channel: ChannelEyeLookOutLeft, Threshold: 0.9}},
		},
		{
			ID:          RuleEyebrowsRaised,
			DisplayName: "Raise Eyebrows",
			Conditions:  []Condition{{Channel: ChannelBrowInnerUp, Threshold: 0.7}},
		},
		{
			ID:            RuleBlinkLeft,
			DisplayName:   "Blink Left",
			Conditions:    []Condition{{Channel: ChannelEyeBlinkRight, Threshold: 0.6}},
			ConflictsWith: RuleBlinkRight,
		},
		{
			ID:            RuleBlinkRight,
			DisplayName:   "Blink Right",
			Conditions:    []Condition{{Channel: ChannelEyeBlinkLeft, Threshold: 0.6}},
			ConflictsWith: RuleBlinkLeft,
		},
		{
			ID:          RuleCheekPuff,
			DisplayName: "Puff Cheeks",
			Conditions:  []Condition{{Channel: ChannelCheekPuff, Threshold: 0.4}},
		},
	}
}

// DefaultCatalog returns a catalog of DefaultRules.
func DefaultCatalog() *Catalog {
	return MustCatalog(DefaultRules())
}
