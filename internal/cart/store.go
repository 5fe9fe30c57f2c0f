// Package cart holds the client-side shopping cart. Every mutation is saved
// through a Persister and the cart is rehydrated from it on startup.
package cart

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

// Persister loads and saves the full item collection.
type Persister interface {
	Load(ctx context.Context) ([]types.CartItem, error)
	Save(ctx context.Context, items []types.CartItem) error
}

// Store is the cart. Items are unique by product ID and keep insertion
// order.
//
// Thread Safety: Safe for concurrent use by multiple goroutines. Mutations
// are serialized; subscribers run after the lock is released.
type Store struct {
	persister Persister
	logger    *zap.Logger

	mu      sync.Mutex
	items   []types.CartItem
	subs    map[int]func([]types.CartItem)
	nextSub int
}

// New creates a cart and rehydrates it from p. A nil p keeps the cart in
// memory only.
func New(ctx context.Context, p Persister, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		persister: p,
		logger:    logger,
		subs:      make(map[int]func([]types.CartItem)),
	}
	if p == nil {
		return s, nil
	}
	items, err := p.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	s.items = normalize(items)
	logger.Debug("cart rehydrated", zap.Int("items", len(s.items)))
	return s, nil
}

// normalize drops invalid items and merges duplicates left by older or
// hand-edited storage.
func normalize(items []types.CartItem) []types.CartItem {
	out := make([]types.CartItem, 0, len(items))
	for _, item := range items {
		if item.Product.ID == "" || item.Quantity <= 0 {
			continue
		}
		if i := indexOf(out, item.Product.ID); i >= 0 {
			out[i].Quantity += item.Quantity
			continue
		}
		out = append(out, item)
	}
	return out
}

func indexOf(items []types.CartItem, productID string) int {
	return slices.IndexFunc(items, func(item types.CartItem) bool {
		return item.Product.ID == productID
	})
}

// AddItem adds quantity of product, incrementing an existing item for the
// same product ID.
func (s *Store) AddItem(ctx context.Context, product types.Product, quantity int) error {
	if product.ID == "" {
		return types.ErrInvalidProduct
	}
	if quantity <= 0 {
		return types.ErrInvalidQuantity
	}
	return s.mutate(ctx, func(items []types.CartItem) []types.CartItem {
		if i := indexOf(items, product.ID); i >= 0 {
			items[i].Quantity += quantity
			return items
		}
		return append(items, types.CartItem{Product: product, Quantity: quantity})
	})
}

// RemoveItem deletes the item for productID. Removing an absent item is a
// no-op.
func (s *Store) RemoveItem(ctx context.Context, productID string) error {
	return s.mutate(ctx, func(items []types.CartItem) []types.CartItem {
		return slices.DeleteFunc(items, func(item types.CartItem) bool {
			return item.Product.ID == productID
		})
	})
}

// UpdateQuantity sets the item's quantity to exactly quantity. A quantity of
// zero or less removes the item. Unknown product IDs are ignored.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID)
	}
	return s.mutate(ctx, func(items []types.CartItem) []types.CartItem {
		if i := indexOf(items, productID); i >= 0 {
			items[i].Quantity = quantity
		}
		return items
	})
}

// ClearCart removes every item.
func (s *Store) ClearCart(ctx context.Context) error {
	return s.mutate(ctx, func([]types.CartItem) []types.CartItem {
		return nil
	})
}

// Items returns a copy of the items.
func (s *Store) Items() []types.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

// Item returns the item for productID.
func (s *Store) Item(productID string) (types.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.items, productID); i >= 0 {
		return s.items[i], true
	}
	return types.CartItem{}, false
}

// TotalItems returns the sum of all quantities.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice returns the sum of price times quantity over all items.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Subscribe registers fn to receive the item collection after every
// mutation and returns a function that removes it.
func (s *Store) Subscribe(fn func(items []types.CartItem)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// mutate applies fn to a copy of the items, saves the result, and only then
// commits it. A failed save leaves the cart unchanged.
func (s *Store) mutate(ctx context.Context, fn func([]types.CartItem) []types.CartItem) error {
	s.mu.Lock()
	next := fn(slices.Clone(s.items))
	if s.persister != nil {
		if err := s.persister.Save(ctx, next); err != nil {
			s.mu.Unlock()
			s.logger.Warn("cart save failed", zap.Error(err))
			return fmt.Errorf("save cart: %w", err)
		}
	}
	s.items = next
	snapshot := slices.Clone(next)
	subs := make([]func([]types.CartItem), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
	return nil
}
