package domain

// CanAccess reports whether actor may read the full record of t or mutate it.
// The owner is the one guaranteed relation; assignee and member are optional
// and an empty field never matches.
func CanAccess(actor string, t Task) bool {
	if actor == "" {
		return false
	}
	return actor == t.Owner || actor == t.Assignee || actor == t.Member
}

// Authorize returns ErrUnauthorized when actor has no relation to t.
func Authorize(actor string, t Task) error {
	if !CanAccess(actor, t) {
		return ErrUnauthorized
	}
	return nil
}
