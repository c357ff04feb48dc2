package session

// Repo persists sessions between invocations. A session is destroyed (Delete)
// when the connection is revoked or a refresh fails.
type Repo interface {
	Upsert(s *Session) error
	Get(id string) (*Session, error)
	Delete(id string) error
}
