// Package storage provides the durable key/value store backing sessions and
// carts. Values are strings; structured payloads are JSON-encoded by callers.
package storage

// Well-known keys. Cart entries additionally use an identity-scoped key, see
// the cart package's storageKeyFor.
const (
	KeyUserToken = "userToken"
	KeyUsername  = "username"
	KeyDarkMode  = "darkMode"
)

// Store is a synchronous string key/value store. Set and Delete complete
// before returning, so a read in the same tick observes the update. A missing
// key is reported through the boolean, never as an error.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}
