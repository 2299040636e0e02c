// Package expression defines the facial-expression rules a player is asked
// to perform and the signal snapshots they are evaluated against.
//
// Rules are data, not code: each Rule lists the channels it reads with a
// threshold per channel, plus the ID of an optional confusable partner.
// A Catalog holds the ordered, immutable set of rules for a game.
//
// # Signal Snapshots
//
// A Signal maps channel names (as reported by the face tracker) to
// intensities in [0,1]. Channel names are subject-relative: the player's
// left eye is reported as "eyeBlinkRight". Rules degrade to a non-match when
// a channel they need is absent; evaluation never fails.
//
// # Conflicts
//
// A rule with ConflictsWith set rejects an otherwise-matching signal when the
// partner rule also matches. The two single-eye blinks conflict with each
// other so a double blink never counts for either.
package expression
