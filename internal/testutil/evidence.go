package testutil

import (
	"context"
	"errors"
	"os"
	"sync"
)

// MemoryEvidence keeps photos in a map keyed by storage key.
type MemoryEvidence struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewMemoryEvidence() *MemoryEvidence {
	return &MemoryEvidence{objects: make(map[string][]byte)}
}

func (m *MemoryEvidence) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	return key, nil
}

func (m *MemoryEvidence) Get(_ context.Context, ref string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[ref]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func (m *MemoryEvidence) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, ref)
	return nil
}

// Len reports how many photos are stored.
func (m *MemoryEvidence) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// ErrStorageUnavailable is what FailingEvidence returns.
var ErrStorageUnavailable = errors.New("evidence storage unavailable")

// FailingEvidence rejects every write, simulating an unavailable backend.
type FailingEvidence struct {
	mu       sync.Mutex
	Attempts int
}

func (f *FailingEvidence) Put(context.Context, string, string, []byte) (string, error) {
	f.mu.Lock()
	f.Attempts++
	f.mu.Unlock()
	return "", ErrStorageUnavailable
}

func (f *FailingEvidence) Get(context.Context, string) ([]byte, error) {
	return nil, ErrStorageUnavailable
}

func (f *FailingEvidence) Delete(context.Context, string) error {
	return nil
}

// PhotoDataURI is a tiny valid PNG payload as sent by the kiosk camera.
const PhotoDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="
