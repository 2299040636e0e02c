// Package compiler turns a CUE game definition into the values the game
// runs on: an expression catalog, a difficulty curve and session rules.
//
// A definition looks like:
//
//	expressions: [
//		{id: "smile", name: "Smile", when: {mouthSmileLeft: 0.5, mouthSmileRight: 0.5}},
//		{id: "blink-left", name: "Blink Left", when: {eyeBlinkRight: 0.6}, conflicts_with: "blink-right"},
//	]
//	stages: [
//		{from: 0, time_ms: 2000, max_points: 10, pause_ms: 1300},
//	]
//	lives: 3
//	game_over_delay_ms: 1000
//	rotate_frames: true
//
// Conditions in `when` are evaluated in declaration order. Every numeric
// field is checked here so the game loop never sees an invalid table.
package compiler
