// Package harness runs scripted FaceOff games for conformance testing.
//
// A scenario drives the real game loop, session controller and challenge
// engine with a manual clock and a scripted rule picker, then checks the
// resulting snapshots and transition trace.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: first_challenge
//	description: "Smile 900ms after it is shown"
//	definition: games/custom.cue   # optional, default is the built-in game
//	picks: [smile, jaw-open]       # rule IDs in draw order, wrapping around
//	steps:
//	  - start: true
//	  - advance_ms: 1300
//	  - sample: {mouthSmileLeft: 0.9, mouthSmileRight: 0.9}
//	    frame: "frame-1"
//	  - expect:
//	      current_points: 6
//	      challenge: ""
//	assertions:
//	  - type: trace_contains
//	    kind: succeeded
//	    rule: smile
//	    points: 6
//	  - type: trace_order
//	    kinds: [started, shown, succeeded]
//	  - type: trace_count
//	    kind: expired
//	    count: 0
//	  - type: final_state
//	    state: {total_succeeded: 1}
//
// Each step does exactly one thing. Samples are stamped with the current
// manual time. After every step the loop is drained, so all transitions
// caused by the step have been applied before the next one.
//
// # Deterministic Testing
//
// The harness uses:
//   - testutil.ManualClock starting at testutil.Epoch
//   - testutil.ScriptedPicker over the scenario's picks
//   - Sequential session IDs ("scenario-1", ...)
//   - An in-memory SQLite store behind the frame archiver
//
// This ensures identical traces across runs for golden file comparison.
package harness
