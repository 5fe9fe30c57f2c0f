package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/storefront/pkg/types"
)

// StorageKey is the key the cart is saved under.
const StorageKey = "cart-storage"

// KV is the client-local key/value storage the cart is persisted in.
type KV interface {
	GetItem(key string) (value string, ok bool, err error)
	SetItem(key, value string) error
}

// envelope is the stored document: the cart state plus a format version.
type envelope struct {
	State   state `json:"state"`
	Version int   `json:"version"`
}

type state struct {
	Items []types.CartItem `json:"items"`
}

// KVPersister saves the cart as one JSON document under StorageKey.
type KVPersister struct {
	kv KV
}

// NewKVPersister creates a persister over kv.
func NewKVPersister(kv KV) *KVPersister {
	return &KVPersister{kv: kv}
}

// Load implements Persister. A missing document is an empty cart.
func (p *KVPersister) Load(ctx context.Context) ([]types.CartItem, error) {
	raw, ok, err := p.kv.GetItem(StorageKey)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("decode %s: %w", StorageKey, err)
	}
	return env.State.Items, nil
}

// Save implements Persister.
func (p *KVPersister) Save(ctx context.Context, items []types.CartItem) error {
	if items == nil {
		items = []types.CartItem{}
	}
	data, err := json.Marshal(envelope{State: state{Items: items}})
	if err != nil {
		return fmt.Errorf("encode %s: %w", StorageKey, err)
	}
	return p.kv.SetItem(StorageKey, string(data))
}
