// Package principal defines the authenticated identity consumed by the sync layer.
package principal

// Principal is the identity reported by the auth provider. Its ID is the
// stable tenant identifier under which all of the account's data lives.
type Principal struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}
