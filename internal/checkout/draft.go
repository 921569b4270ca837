package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joao-fontenele/tacotown/internal/domain"
)

const (
	CartKey    = "tacoCart"
	ProfileKey = "tacoCustomerData"
)

// DraftStore keeps unconfirmed state on the customer's side, keyed like
// browser local storage. Load reports false when the key is absent.
type DraftStore interface {
	Load(ctx context.Context, key string, v any) (bool, error)
	Save(ctx context.Context, key string, v any) error
	Remove(ctx context.Context, keys ...string) error
}

type MemoryDrafts struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryDrafts() *MemoryDrafts {
	return &MemoryDrafts{data: make(map[string][]byte)}
}

func (m *MemoryDrafts) Load(_ context.Context, key string, v any) (bool, error) {
	m.mu.Lock()
	raw, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode draft %s: %w", key, err)
	}
	return true, nil
}

func (m *MemoryDrafts) Save(_ context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", key, err)
	}
	m.mu.Lock()
	m.data[key] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryDrafts) Remove(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// Raw returns the stored bytes for key, for inspection in tests and tools.
func (m *MemoryDrafts) Raw(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	return raw, ok
}

// FileDrafts stores each key as <dir>/<key>.json.
type FileDrafts struct {
	dir string
}

func NewFileDrafts(dir string) (*FileDrafts, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create drafts dir: %w", err)
	}
	return &FileDrafts{dir: dir}, nil
}

func (f *FileDrafts) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid draft key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *FileDrafts) Load(_ context.Context, key string, v any) (bool, error) {
	p, err := f.path(key)
	if err != nil {
		return false, err
	}
	raw, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read draft %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode draft %s: %w", key, err)
	}
	return true, nil
}

func (f *FileDrafts) Save(_ context.Context, key string, v any) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode draft %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("write draft %s: %w", key, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write draft %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write draft %s: %w", key, err)
	}
	return os.Rename(tmp.Name(), p)
}

func (f *FileDrafts) Remove(_ context.Context, keys ...string) error {
	for _, key := range keys {
		p, err := f.path(key)
		if err != nil {
			return err
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove draft %s: %w", key, err)
		}
	}
	return nil
}

// Cart wraps a DraftStore with the cart operations the storefront performs.
type Cart struct {
	drafts DraftStore
}

func NewCart(drafts DraftStore) *Cart {
	return &Cart{drafts: drafts}
}

func (c *Cart) Items(ctx context.Context) ([]domain.LineItem, error) {
	var items []domain.LineItem
	if _, err := c.drafts.Load(ctx, CartKey, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// AddItem appends item, or bumps the quantity of an existing line with the same name.
func (c *Cart) AddItem(ctx context.Context, item domain.LineItem) error {
	if problem := checkLine(item.Quantity, item.Price); problem != "" {
		return &ValidationError{Problems: []string{problem}}
	}

	items, err := c.Items(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if items[i].Name == item.Name {
			if items[i].Quantity > MaxQuantity-item.Quantity {
				return &ValidationError{Problems: []string{
					fmt.Sprintf("quantity of %s must be at most %d", item.Name, MaxQuantity),
				}}
			}
			items[i].Quantity += item.Quantity
			return c.drafts.Save(ctx, CartKey, items)
		}
	}
	return c.drafts.Save(ctx, CartKey, append(items, item))
}

// SetQuantity changes a line's quantity; zero or less removes it.
func (c *Cart) SetQuantity(ctx context.Context, name string, quantity int) error {
	if quantity > MaxQuantity {
		return &ValidationError{Problems: []string{fmt.Sprintf("quantity must be at most %d", MaxQuantity)}}
	}
	items, err := c.Items(ctx)
	if err != nil {
		return err
	}
	out := items[:0]
	for _, item := range items {
		if item.Name == name {
			if quantity < 1 {
				continue
			}
			item.Quantity = quantity
		}
		out = append(out, item)
	}
	return c.drafts.Save(ctx, CartKey, out)
}

func (c *Cart) RemoveItem(ctx context.Context, name string) error {
	return c.SetQuantity(ctx, name, 0)
}

// ClearCart drops the cart draft and leaves the profile draft in place.
func (c *Cart) ClearCart(ctx context.Context) error {
	return c.drafts.Remove(ctx, CartKey)
}

func loadProfile(ctx context.Context, drafts DraftStore) (domain.CustomerProfile, error) {
	var p domain.CustomerProfile
	if _, err := drafts.Load(ctx, ProfileKey, &p); err != nil {
		return domain.CustomerProfile{}, err
	}
	return p, nil
}
