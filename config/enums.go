package config

// Specification of unresolved reference handling mode.
// ENUM(inert, keep)
type UnresolvedMode int

// Inert reports whether unresolved references should be rewritten to a
// non-navigating link with a client-side notification hook.
func (m UnresolvedMode) Inert() bool {
	return m == UnresolvedModeInert
}
