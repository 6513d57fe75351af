package capability

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// StoreVersion is the current version of the verdict file format.
const StoreVersion = 1

// Snapshot is the persisted verdict file.
type Snapshot struct {
	// Version is the file format version.
	Version int `json:"version"`

	// SavedAt is when the file was last written.
	SavedAt time.Time `json:"saved_at"`

	// Interfaces maps interface names to their verdicts.
	Interfaces map[string]Verdict `json:"interfaces,omitempty"`
}

// Verdict is one interface's probe result.
type Verdict struct {
	State    string    `json:"state"`
	ProbedAt time.Time `json:"probed_at"`
}

// Store persists capability verdicts to a JSON file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the verdict file.
// Returns nil, nil if the file doesn't exist.
func (s *Store) Load() (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Put records the verdict for iface, keeping other interfaces.
func (s *Store) Put(iface string, v Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil {
		return err
	}
	if snap == nil {
		snap = &Snapshot{}
	}
	if snap.Interfaces == nil {
		snap.Interfaces = make(map[string]Verdict)
	}
	snap.Interfaces[iface] = v
	return s.save(snap)
}

// Delete removes the verdict for iface.
func (s *Store) Delete(iface string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load()
	if err != nil || snap == nil {
		return err
	}
	if _, ok := snap.Interfaces[iface]; !ok {
		return nil
	}
	delete(snap.Interfaces, iface)
	return s.save(snap)
}

// Clear removes the verdict file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *Store) load() (*Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (s *Store) save(snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}

	snap.Version = StoreVersion
	snap.SavedAt = time.Now()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
