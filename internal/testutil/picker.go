package testutil

import "sync"

// ScriptedPicker returns predetermined indices in order, then wraps around.
//
// Indices are reduced modulo n so a script written for a larger catalog
// stays in range.
type ScriptedPicker struct {
	mu      sync.Mutex
	indices []int
	pos     int
}

// NewScriptedPicker creates a picker. With no indices it always returns 0.
func NewScriptedPicker(indices ...int) *ScriptedPicker {
	return &ScriptedPicker{indices: indices}
}

// Pick returns the next scripted index.
func (p *ScriptedPicker) Pick(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.indices) == 0 || n <= 0 {
		return 0
	}
	idx := p.indices[p.pos%len(p.indices)]
	p.pos++
	return idx % n
}

// Calls returns how many picks were made.
func (p *ScriptedPicker) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}
