package partner

// State is a partner relationship as seen from one account.
type State int

const (
	// Unlinked: no partner link.
	Unlinked State = iota
	// Invited: one side carries a wrapped shared key, the other side has not
	// reconciled yet.
	Invited
	// Linked: both links point at each other and both carry a wrapped key.
	Linked
	// Inconsistent: anything else. Reconcile repairs it.
	Inconsistent
)

func (s State) String() string {
	switch s {
	case Unlinked:
		return "unlinked"
	case Invited:
		return "invited"
	case Linked:
		return "linked"
	case Inconsistent:
		return "inconsistent"
	}
	return "unknown"
}
