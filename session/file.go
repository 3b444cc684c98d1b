package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// sessionFile is the on-disk layout. Field names are the documented storage
// keys so the file stays readable alongside the web client's localStorage
// dump format.
type sessionFile struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenExpiry  int64  `json:"token_expiry,omitempty"` // unix seconds, 0 = unknown
}

// FileStore persists the session to a JSON file under a profile directory so
// it survives a process restart. When the directory cannot be created or the
// file cannot be written, the store degrades to in-memory behaviour instead
// of failing: persistence is best effort, the session itself is not.
type FileStore struct {
	mu       sync.Mutex
	path     string
	memory   MemoryStore
	degraded bool
}

// NewFileStore creates a session store backed by the given file path. The
// parent directory is created if missing. Construction never fails; an
// unusable path produces a degraded, memory-only store.
func NewFileStore(path string) *FileStore {
	s := &FileStore{path: path}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		log.Err(err).Str("path", path).Msg("Session file storage unavailable, using memory only")
		s.degraded = true
		return s
	}
	if err := s.load(); err != nil {
		// A corrupt or unreadable file starts us empty rather than broken.
		log.Err(err).Str("path", path).Msg("Could not load persisted session, starting empty")
	}
	return s
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	var f sessionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	var expiry time.Time
	if f.TokenExpiry > 0 {
		expiry = time.Unix(f.TokenExpiry, 0)
	}
	s.memory.session = Session{
		AccessToken:  f.AccessToken,
		RefreshToken: f.RefreshToken,
		AccessExpiry: expiry,
	}
	return nil
}

// persist writes the current session to disk via a rename so a reader never
// observes a partially written file.
func (s *FileStore) persist(sess Session) {
	if s.degraded {
		return
	}
	f := sessionFile{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	}
	if !sess.AccessExpiry.IsZero() {
		f.TokenExpiry = sess.AccessExpiry.Unix()
	}
	data, err := json.Marshal(f)
	if err != nil {
		return
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		log.Err(err).Str("path", s.path).Msg("Session file write failed, degrading to memory only")
		s.degraded = true
		return
	}
	if err := os.Rename(tmp, s.path); err != nil {
		log.Err(err).Str("path", s.path).Msg("Session file rename failed, degrading to memory only")
		s.degraded = true
	}
}

func (s *FileStore) Read() (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Read()
}

func (s *FileStore) Write(t Tokens) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.memory.Write(t); err != nil {
		return err
	}
	sess, _ := s.memory.Read()
	s.persist(sess)
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.memory.Clear(); err != nil {
		return err
	}
	if s.degraded {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		log.Err(err).Str("path", s.path).Msg("Could not remove persisted session")
	}
	return nil
}
