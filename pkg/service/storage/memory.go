package storage

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/actiontracker/pkg/domain/interfaces"
)

// Memory keeps objects in process. Presigned URLs point at memory:// and
// cannot be used by real clients; tests complete the upload with Put.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

var _ interfaces.ObjectStorage = &Memory{}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]memoryObject)}
}

func (m *Memory) Put(ctx context.Context, key, contentType string, data []byte) error {
	copied := make([]byte, len(data))
	copy(copied, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: copied, contentType: contentType}
	return nil
}

func (m *Memory) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	q := url.Values{}
	q.Set("expires", fmt.Sprintf("%d", time.Now().Add(ttl).Unix()))
	if contentType != "" {
		q.Set("content_type", contentType)
	}
	return (&url.URL{Scheme: "memory", Host: "evidence", Path: "/" + key, RawQuery: q.Encode()}).String(), nil
}

func (m *Memory) Stat(ctx context.Context, key string) (*interfaces.ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, goerr.Wrap(interfaces.ErrObjectNotFound, "object not found", goerr.V("key", key))
	}
	return &interfaces.ObjectInfo{Size: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// Get returns a copy of a stored object
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, false
	}
	copied := make([]byte, len(obj.data))
	copy(copied, obj.data)
	return copied, true
}

// Len returns the number of stored objects
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}
