package filerepo

import (
	"crypto/rand"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/netop-connector/internal/errors"
	"github.com/jrsteele09/netop-connector/session"
	"github.com/pkg/errors"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

var _ session.Repo = (*FileRepo)(nil)

// FileRepo keeps sessions in a single file sealed with a key derived from a
// passphrase. The file layout is salt | nonce | secretbox(json sessions).
type FileRepo struct {
	path       string
	passphrase []byte
	lock       sync.Mutex
}

func New(path, passphrase string) (*FileRepo, error) {
	if path == "" {
		return nil, &apperrors.ConfigurationError{Field: "session file", Reason: "path is required"}
	}
	if passphrase == "" {
		return nil, &apperrors.ConfigurationError{Field: "session key", Reason: "passphrase is required"}
	}
	return &FileRepo{path: path, passphrase: []byte(passphrase)}, nil
}

func (r *FileRepo) Upsert(s *session.Session) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	sessions, err := r.load()
	if err != nil {
		return err
	}
	sessions[s.ID] = *s
	return r.save(sessions)
}

func (r *FileRepo) Get(id string) (*session.Session, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	sessions, err := r.load()
	if err != nil {
		return nil, err
	}
	s, ok := sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	return &s, nil
}

func (r *FileRepo) Delete(id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	sessions, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := sessions[id]; !ok {
		return nil
	}
	delete(sessions, id)
	if len(sessions) == 0 {
		if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return errors.Wrap(err, "[FileRepo Delete] removing session file")
		}
		return nil
	}
	return r.save(sessions)
}

func (r *FileRepo) load() (map[string]session.Session, error) {
	sessions := map[string]session.Session{}
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return sessions, nil
		}
		return nil, errors.Wrap(err, "[FileRepo] reading session file")
	}
	if len(data) < saltSize+nonceSize+secretbox.Overhead {
		return nil, errors.New("[FileRepo] session file is truncated")
	}

	salt := data[:saltSize]
	var nonce [nonceSize]byte
	copy(nonce[:], data[saltSize:saltSize+nonceSize])
	key, err := r.deriveKey(salt)
	if err != nil {
		return nil, err
	}
	plain, ok := secretbox.Open(nil, data[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return nil, errors.New("[FileRepo] session file cannot be decrypted with the configured key")
	}
	if err := json.Unmarshal(plain, &sessions); err != nil {
		return nil, errors.Wrap(err, "[FileRepo] decoding sessions")
	}
	return sessions, nil
}

func (r *FileRepo) save(sessions map[string]session.Session) error {
	plain, err := json.Marshal(sessions)
	if err != nil {
		return errors.Wrap(err, "[FileRepo] encoding sessions")
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return errors.Wrap(err, "[FileRepo] generating salt")
	}
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return errors.Wrap(err, "[FileRepo] generating nonce")
	}
	key, err := r.deriveKey(salt)
	if err != nil {
		return err
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, salt...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, plain, &nonce, key)

	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return errors.Wrap(err, "[FileRepo] creating session directory")
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return errors.Wrap(err, "[FileRepo] writing session file")
	}
	return os.Rename(tmp, r.path)
}

func (r *FileRepo) deriveKey(salt []byte) (*[keySize]byte, error) {
	derived, err := scrypt.Key(r.passphrase, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, errors.Wrap(err, "[FileRepo] deriving key")
	}
	var key [keySize]byte
	copy(key[:], derived)
	return &key, nil
}
