package note

// Capability is the effective access level a principal holds over a note.
type Capability int

const (
	CapabilityNone Capability = iota
	CapabilityView
	CapabilityEdit
	CapabilityOwn
)

func (c Capability) String() string {
	switch c {
	case CapabilityView:
		return "view"
	case CapabilityEdit:
		return "edit"
	case CapabilityOwn:
		return "own"
	}
	return "none"
}

// CanView reports whether the capability allows reading the note (and its
// history).
func (c Capability) CanView() bool { return c >= CapabilityView }

// CanEdit reports whether the capability allows mutating title/content.
func (c Capability) CanEdit() bool { return c >= CapabilityEdit }

// IsOwner reports whether the capability allows permission management,
// share management and deletion.
func (c Capability) IsOwner() bool { return c == CapabilityOwn }

// Evaluate resolves the effective capability of a principal (or an anonymous
// share-token holder) over a note. It is a pure function of the note's
// owner/permissions/share fields, in priority order:
//
//  1. owner
//  2. explicit permission entry
//  3. active share token match
//  4. none
//
// An empty principalID with a matching token yields the anonymous share
// capability; anonymous access never grants ownership rights.
func Evaluate(n *Note, principalID, shareToken string) Capability {
	if n == nil {
		return CapabilityNone
	}
	if principalID != "" && principalID == n.OwnerID {
		return CapabilityOwn
	}
	if principalID != "" {
		for _, p := range n.Permissions {
			if p.UserID == principalID {
				if p.Role == RoleEditor {
					return CapabilityEdit
				}
				return CapabilityView
			}
		}
	}
	if shareToken != "" && n.Shared && shareToken == n.ShareToken {
		if n.SharePermission == ShareEdit {
			return CapabilityEdit
		}
		return CapabilityView
	}
	return CapabilityNone
}
