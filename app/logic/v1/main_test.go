package v1_test

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/shortshare/shortshare/app/core"
	"github.com/shortshare/shortshare/pkg/types"
)

var (
	ctx      = context.Background()
	coreOnce sync.Once
	testCore *core.Core

	testStore    = newMemShareStore()
	testFiles    = newMemFileStorage()
	testVerifier = &fakeVerifier{pass: true}
)

func NewCore() *core.Core {
	coreOnce.Do(func() {
		testCore = core.MustSetupCore(core.CoreConfig{},
			core.WithShareStore(testStore),
			core.WithFileStorage(testFiles),
			core.WithVerifier(testVerifier),
		)
	})
	return testCore
}

type fakeVerifier struct {
	pass bool
}

func (f *fakeVerifier) Verify(ctx context.Context, token, ip string) (bool, error) {
	return f.pass, nil
}

type storedItem struct {
	item     types.ShareItem
	deadline time.Time // 零值表示永不过期
}

type memShareStore struct {
	mu    sync.Mutex
	items map[string]*storedItem
}

func newMemShareStore() *memShareStore {
	return &memShareStore{items: make(map[string]*storedItem)}
}

func (m *memShareStore) Get(ctx context.Context, code string) (*types.ShareItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.items[code]
	if !ok {
		return nil, nil
	}
	if !s.deadline.IsZero() && time.Now().After(s.deadline) {
		delete(m.items, code)
		return nil, nil
	}
	cp := s.item
	return &cp, nil
}

func (m *memShareStore) Create(ctx context.Context, code string, item *types.ShareItem, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[code]; ok {
		return false, nil
	}
	s := &storedItem{item: *item}
	if ttl > 0 {
		s.deadline = time.Now().Add(ttl)
	}
	m.items[code] = s
	return true, nil
}

func (m *memShareStore) Update(ctx context.Context, code string, item *types.ShareItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.items[code]; ok {
		s.item = *item
	}
	return nil
}

func (m *memShareStore) Delete(ctx context.Context, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[code]
	delete(m.items, code)
	return ok, nil
}

func (m *memShareStore) ListCodes(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := make([]string, 0, len(m.items))
	for code := range m.items {
		codes = append(codes, code)
	}
	return codes, nil
}

type memBlob struct {
	data        []byte
	contentType string
}

type memFileStorage struct {
	mu    sync.Mutex
	blobs map[string]memBlob
}

func newMemFileStorage() *memFileStorage {
	return &memFileStorage{blobs: make(map[string]memBlob)}
}

func (m *memFileStorage) SaveFile(ctx context.Context, key string, reader io.Reader, meta types.BlobMeta) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = memBlob{data: data, contentType: meta.ContentType}
	return nil
}

func (m *memFileStorage) DownloadFile(ctx context.Context, key string) (*types.GetObjectResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, nil
	}
	return &types.GetObjectResult{File: bytes.Clone(b.data), FileType: b.contentType}, nil
}

func (m *memFileStorage) DeleteFile(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, key)
	return nil
}

func (m *memFileStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[key]
	return ok
}
