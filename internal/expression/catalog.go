package expression

import (
	"fmt"
)

// Catalog is an ordered, immutable set of rules.
//
// INVARIANTS:
//   - Rule IDs are unique
//   - Every ConflictsWith refers to another rule in the catalog
//   - Order never changes after construction
type Catalog struct {
	rules []Rule
	index map[string]int
}

// NewCatalog validates rules and returns a catalog preserving their order.
// The slice (and each rule's conditions) is copied so later mutation by the
// caller cannot reach the catalog.
func NewCatalog(rules []Rule) (*Catalog, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("catalog requires at least one rule")
	}

	c := &Catalog{
		rules: make([]Rule, len(rules)),
		index: make(map[string]int, len(rules)),
	}

	for i, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("rule %d: id is required", i)
		}
		if _, dup := c.index[r.ID]; dup {
			return nil, fmt.Errorf("duplicate rule ID: %s", r.ID)
		}
		if len(r.Conditions) == 0 {
			return nil, fmt.Errorf("rule %s: at least one condition is required", r.ID)
		}
		for _, cond := range r.Conditions {
			if cond.Channel == "" {
				return nil, fmt.Errorf("rule %s: condition channel is required", r.ID)
			}
		}
		if r.DisplayName == "" {
			r.DisplayName = r.ID
		}
		conds := make([]Condition, len(r.Conditions))
		copy(conds, r.Conditions)
		r.Conditions = conds

		c.rules[i] = r
		c.index[r.ID] = i
	}

	for _, r := range c.rules {
		if r.ConflictsWith == "" {
			continue
		}
		if r.ConflictsWith == r.ID {
			return nil, fmt.Errorf("rule %s: cannot conflict with itself", r.ID)
		}
		if _, ok := c.index[r.ConflictsWith]; !ok {
			return nil, fmt.Errorf("rule %s: unknown conflict partner %q", r.ID, r.ConflictsWith)
		}
	}

	return c, nil
}

// MustCatalog is NewCatalog for static rule tables. Panics on error.
func MustCatalog(rules []Rule) *Catalog {
	c, err := NewCatalog(rules)
	if err != nil {
		panic(err)
	}
	return c
}

// Len returns the number of rules.
func (c *Catalog) Len() int {
	return len(c.rules)
}

// At returns the i-th rule in declaration order.
func (c *Catalog) At(i int) Rule {
	return c.rules[i]
}

// Lookup returns the rule with the given ID.
func (c *Catalog) Lookup(id string) (Rule, bool) {
	i, ok := c.index[id]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Rules returns a copy of the rules in declaration order.
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Conflicts reports whether s also satisfies the confusable partner of r.
// Rules without a partner never conflict.
func (c *Catalog) Conflicts(r Rule, s Signal) bool {
	if r.ConflictsWith == "" {
		return false
	}
	partner, ok := c.Lookup(r.ConflictsWith)
	if !ok {
		return false
	}
	return partner.Matches(s)
}

// Satisfied reports whether s is a valid success for r: the rule matches
// and its partner does not.
func (c *Catalog) Satisfied(r Rule, s Signal) bool {
	return r.Matches(s) && !c.Conflicts(r, s)
}
