package inventory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"sync"

	"inventory/domain"
	"inventory/pkg/events"
)

type fakeRepository struct {
	mu        sync.Mutex
	nextID    int64
	items     map[int64]domain.InventoryItem
	createErr error
	photoErr  error
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{items: map[int64]domain.InventoryItem{}}
}

func (r *fakeRepository) ListItems(context.Context) ([]domain.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]domain.InventoryItem, 0, len(r.items))
	for _, item := range r.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *fakeRepository) GetItem(_ context.Context, id int64) (domain.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return domain.InventoryItem{}, domain.ErrItemNotFound
	}
	return item, nil
}

func (r *fakeRepository) CreateItem(_ context.Context, name, description string, photoFilename *string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return 0, r.createErr
	}
	r.nextID++
	r.items[r.nextID] = domain.InventoryItem{
		ID:            r.nextID,
		InventoryName: name,
		Description:   description,
		PhotoFilename: photoFilename,
	}
	return r.nextID, nil
}

func (r *fakeRepository) UpdateItem(_ context.Context, id int64, name, description *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	if name != nil {
		item.InventoryName = *name
	}
	if description != nil {
		item.Description = *description
	}
	r.items[id] = item
	return nil
}

func (r *fakeRepository) UpdatePhoto(_ context.Context, id int64, filename string) (*string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.photoErr != nil {
		return nil, r.photoErr
	}
	item, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	previous := item.PhotoFilename
	item.PhotoFilename = &filename
	r.items[id] = item
	return previous, nil
}

func (r *fakeRepository) DeleteItem(_ context.Context, id int64) (domain.InventoryItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok {
		return domain.InventoryItem{}, domain.ErrItemNotFound
	}
	delete(r.items, id)
	return item, nil
}

func (r *fakeRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

type fakeBlobStore struct {
	mu        sync.Mutex
	seq       int
	blobs     map[string][]byte
	saveErr   error
	removeErr error
	removed   []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (b *fakeBlobStore) Save(_ context.Context, r io.Reader, ext string) (string, error) {
	if b.saveErr != nil {
		return "", b.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	name := "blob-" + strconv.Itoa(b.seq) + ext
	b.blobs[name] = data
	return name, nil
}

func (b *fakeBlobStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.blobs[name]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *fakeBlobStore) Remove(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removed = append(b.removed, name)
	if b.removeErr != nil {
		return b.removeErr
	}
	delete(b.blobs, name)
	return nil
}

func (b *fakeBlobStore) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blobs)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*events.Event
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, event *events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.Event)
	}
	return names
}

var errStoreDown = errors.New("store unavailable")
