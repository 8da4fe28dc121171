package models

// Identity is the authenticated principal attached to a request. It is resolved once by the
// auth middleware and passed by value so handlers cannot mutate it.
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
	Admin       bool   `json:"admin"`
}
