package dvar

// ResetDvars resets every variable whose flags intersect filter, on behalf
// of source.
func (r *Registry) ResetDvars(filter Flags, source Source) int {
	n := 0
	for _, v := range r.snapshot() {
		if v.Flags().Any(filter) {
			v.Reset(source)
			n++
		}
	}
	return n
}

// SetCheatState restores every cheat-protected variable to its reset value.
// Call it after cheats are switched off.
func (r *Registry) SetCheatState() int {
	return r.ResetDvars(FlagCheat, SourceInternal)
}
