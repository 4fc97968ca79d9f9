package storage

// Stack is a quantity of one item kind with a stable entity identity. The
// identity survives moves between units, cells and queues; splitting mints a
// new identity for the split-off part.
type Stack struct {
	ID   string
	Item string

	Count int

	// Forbidden marks the stack as off-limits to agent hauling.
	Forbidden bool
	// Reserved marks the stack as claimed by an in-flight task.
	Reserved bool
}

func (s *Stack) CanMergeWith(o *Stack) bool {
	return s != nil && o != nil && s.Item == o.Item
}

// AcceptPolicy is an item filter plus a haul priority. A nil Allowed set
// accepts everything.
type AcceptPolicy struct {
	Allowed  map[string]bool
	Priority int
}

func (p AcceptPolicy) Accepts(item string) bool {
	if p.Allowed == nil {
		return true
	}
	return p.Allowed[item]
}

// AllowOnly builds a policy accepting exactly the given item kinds.
func AllowOnly(items ...string) AcceptPolicy {
	m := make(map[string]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return AcceptPolicy{Allowed: m}
}
