package store

// Gateway durably loads and saves the whole key space as one unit.
// Implementations need no locking of their own: the Store is only ever
// driven by one caller at a time.
type Gateway interface {
	Load() (map[string]Entry, error)
	Save(data map[string]Entry) error
}
