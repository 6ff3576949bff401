package note

import "time"

// Role is the access level granted to a collaborator through the note's
// permission list. The owner is never listed; ownership is a separate,
// higher capability derived from OwnerID.
type Role string

const (
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
)

// SharePermission is the capability granted to anonymous holders of an
// active share token.
type SharePermission string

const (
	ShareView SharePermission = "view"
	ShareEdit SharePermission = "edit"
)

// HistoryCap bounds the rolling edit history per note. Oldest entries are
// evicted first once the cap is reached.
const HistoryCap = 5

// Permission grants a single user a role on a note. At most one entry per
// user id.
type Permission struct {
	UserID   string `bson:"userId" json:"userId"`
	UserName string `bson:"userName,omitempty" json:"userName,omitempty"`
	Role     Role   `bson:"role" json:"role"`
}

// HistoryEntry records the body a note had *before* an edit was applied,
// so history only ever contains states that actually existed.
type HistoryEntry struct {
	Content   string    `bson:"content" json:"content"`
	UpdatedBy string    `bson:"updatedBy" json:"updatedBy"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Note is the persistent document model.
type Note struct {
	ID              string          `bson:"_id,omitempty" json:"id"`
	Title           string          `bson:"title" json:"title"`
	Content         string          `bson:"content" json:"content"`
	OwnerID         string          `bson:"ownerId" json:"ownerId"`
	OwnerName       string          `bson:"ownerName,omitempty" json:"ownerName,omitempty"`
	Permissions     []Permission    `bson:"permissions" json:"permissions"`
	Shared          bool            `bson:"shared" json:"shared"`
	ShareToken      string          `bson:"shareToken,omitempty" json:"-"`
	SharePermission SharePermission `bson:"sharePermission" json:"sharePermission"`
	History         []HistoryEntry  `bson:"history" json:"-"`
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// DefaultTitle is used when a note is created without one.
const DefaultTitle = "Untitled Note"

// SharedView is the restricted projection returned for anonymous share-link
// access. It never exposes the permission list, history, or the token set.
type SharedView struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Content         string          `json:"content"`
	OwnerName       string          `json:"ownerName,omitempty"`
	SharePermission SharePermission `json:"sharePermission"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Clone returns a deep copy so callers can hand notes across goroutines
// without aliasing the repository's slices.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Permissions = append([]Permission(nil), n.Permissions...)
	cp.History = append([]HistoryEntry(nil), n.History...)
	return &cp
}
