package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"quickhost/internal/app/images"
)

// BlobStore keeps image bytes in memory. A folder exists while any object lives
// under it, so deleting a folder path only ever removes an object stored at
// that exact path.
type BlobStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewBlobStore() *BlobStore {
	return &BlobStore{objects: make(map[string][]byte)}
}

func (s *BlobStore) Save(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[clean(path)] = append([]byte(nil), content...)
	return nil
}

func (s *BlobStore) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, clean(path))
	return nil
}

func (s *BlobStore) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	path = clean(path)
	if _, ok := s.objects[path]; ok {
		return true, nil
	}
	prefix := path + "/"
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			return true, nil
		}
	}
	return false, nil
}

// Paths lists stored object paths in order.
func (s *BlobStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.objects))
	for key := range s.objects {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func clean(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

var _ images.BlobStore = (*BlobStore)(nil)
