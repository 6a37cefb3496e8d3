// Package store persists the operator's finished form in a small key-value
// store that the client fill-in surface reads back.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/goliatone/go-formprompt/pkg/model"
)

// FormKey is the key the finished form is stored under.
const FormKey = "form"

// ErrNoForm is returned by LoadForm when nothing has been saved.
var ErrNoForm = errors.New("store: no form saved")

// KV is a string key-value store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// SaveForm writes form under FormKey as JSON.
func SaveForm(ctx context.Context, kv KV, form model.Form) error {
	if kv == nil {
		return errors.New("store: kv is required")
	}
	if form.Fields == nil {
		form.Fields = []model.Field{}
	}
	data, err := json.Marshal(form)
	if err != nil {
		return fmt.Errorf("store: encode form: %w", err)
	}
	if err := kv.Set(ctx, FormKey, string(data)); err != nil {
		return fmt.Errorf("store: save form: %w", err)
	}
	return nil
}

// LoadForm reads the form stored under FormKey.
func LoadForm(ctx context.Context, kv KV) (model.Form, error) {
	if kv == nil {
		return model.Form{}, errors.New("store: kv is required")
	}
	raw, ok, err := kv.Get(ctx, FormKey)
	if err != nil {
		return model.Form{}, fmt.Errorf("store: load form: %w", err)
	}
	if !ok {
		return model.Form{}, ErrNoForm
	}
	var form model.Form
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		return model.Form{}, fmt.Errorf("store: decode form: %w", err)
	}
	return form, nil
}

// Memory is an in-process KV.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
}

var _ KV = (*Memory)(nil)

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

// Get implements KV.
func (m *Memory) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

// Set implements KV.
func (m *Memory) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// Delete implements KV.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
