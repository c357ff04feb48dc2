package repofake

import (
	"sync"

	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
	"github.com/jrsteele09/netop-connector/session"
)

var _ session.Repo = (*FakeSessionRepo)(nil)

type FakeSessionRepo struct {
	sessions map[string]session.Session
	lock     sync.RWMutex
}

func NewFakeSessionRepo() *FakeSessionRepo {
	return &FakeSessionRepo{
		sessions: make(map[string]session.Session),
	}
}

func (sr *FakeSessionRepo) Upsert(s *session.Session) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.sessions[s.ID] = *s
	return nil
}

func (sr *FakeSessionRepo) Get(id string) (*session.Session, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	s, ok := sr.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return &s, nil
}

func (sr *FakeSessionRepo) Delete(id string) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	delete(sr.sessions, id)
	return nil
}
