package models

import "time"

// User represents an application user record kept in sync from the identity
// provider's claims. Sub is the stable principal id used everywhere in the
// notes core (owner, permissions, history attribution).
type User struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Sub       string    `bson:"sub" json:"sub"`
	Email     string    `bson:"email" json:"email"`
	Name      string    `bson:"name" json:"name"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Principal is the already-verified identity attached to a request by the
// auth middleware. Credential verification happens outside this service;
// handlers only ever see this.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
