package refdata

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu     sync.Mutex
	nextID map[Kind]int64
	items  map[Kind]map[int64]Item
}

// NewMemoryRepository builds an in-memory reference store for development and
// tests, preloaded with the seed rows shipped in the migrations.
func NewMemoryRepository() Repository {
	r := &memoryRepository{
		nextID: make(map[Kind]int64),
		items:  make(map[Kind]map[int64]Item),
	}
	for _, kind := range Kinds() {
		r.items[kind] = make(map[int64]Item)
		r.nextID[kind] = 1
	}
	seed := map[Kind][]string{
		Genders:   {"Male", "Female", "Others"},
		Goals:     {"Get Fitter", "Gain Weight", "Lose Weight", "Gain More Flexible", "Building Muscles", "Others"},
		Units:     {"Metric", "Imperial"},
		UserTypes: {"free", "guest", "premium"},
	}
	ctx := context.Background()
	for kind, names := range seed {
		for _, name := range names {
			_, _ = r.Create(ctx, kind, name)
		}
	}
	return r
}

func (r *memoryRepository) List(_ context.Context, kind Kind) ([]Item, error) {
	if _, err := kind.Table(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]Item, 0, len(r.items[kind]))
	for _, item := range r.items[kind] {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *memoryRepository) Get(_ context.Context, kind Kind, id int64) (Item, error) {
	if _, err := kind.Table(); err != nil {
		return Item{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[kind][id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return item, nil
}

func (r *memoryRepository) Create(_ context.Context, kind Kind, name string) (Item, error) {
	if _, err := kind.Table(); err != nil {
		return Item{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range r.items[kind] {
		if item.Name == name {
			return Item{}, ErrDuplicateName
		}
	}
	now := time.Now().UTC()
	item := Item{ID: r.nextID[kind], Name: name, CreatedAt: now, UpdatedAt: now}
	r.nextID[kind]++
	r.items[kind][item.ID] = item
	return item, nil
}

func (r *memoryRepository) Update(_ context.Context, kind Kind, id int64, name string) (Item, error) {
	if _, err := kind.Table(); err != nil {
		return Item{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[kind][id]
	if !ok {
		return Item{}, ErrNotFound
	}
	for otherID, other := range r.items[kind] {
		if otherID != id && other.Name == name {
			return Item{}, ErrDuplicateName
		}
	}
	item.Name = name
	item.UpdatedAt = time.Now().UTC()
	r.items[kind][id] = item
	return item, nil
}

func (r *memoryRepository) Delete(_ context.Context, kind Kind, id int64) error {
	if _, err := kind.Table(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[kind][id]; !ok {
		return ErrNotFound
	}
	delete(r.items[kind], id)
	return nil
}
