package domain

// Phase identifies one stage of the learning program.
type Phase int

// Phases lists every valid program phase in order.
var Phases = []Phase{1, 2, 3, 4, 5}

// Valid reports whether p is one of the program phases.
func (p Phase) Valid() bool {
	for _, phase := range Phases {
		if p == phase {
			return true
		}
	}
	return false
}

// IsValidPhase reports whether value names a program phase.
func IsValidPhase(value int) bool {
	return Phase(value).Valid()
}

// validPhase reports whether p is set and valid.
func validPhase(p *Phase) bool {
	return p != nil && p.Valid()
}

// phasePointer converts a raw upstream phase into a nullable phase.
// Zero is treated as unset.
func phasePointer(value *int) *Phase {
	if value == nil || *value == 0 {
		return nil
	}
	phase := Phase(*value)
	return &phase
}

// clonePhase copies a nullable phase so callers do not alias each other.
func clonePhase(p *Phase) *Phase {
	if p == nil {
		return nil
	}
	phase := *p
	return &phase
}
