// Package store defines the document-store collaborator: live
// collection and single-document subscriptions plus CRUD writes.
// Domain logic never depends on how snapshots arrive.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound marks operations against a missing document.
var ErrNotFound = errors.New("document not found")

// StoreError wraps a failed store operation. Failed writes are never
// applied and never retried; callers surface the error and keep their
// last-known snapshot.
type StoreError struct {
	Op   string
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Document is one stored document: the store-assigned id plus the raw
// JSON payload.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document payload into out.
func (d *Document) Decode(out any) error {
	if d == nil {
		return &StoreError{Op: "decode", Err: ErrNotFound}
	}
	if err := json.Unmarshal(d.Data, out); err != nil {
		return &StoreError{Op: "decode", Path: d.ID, Err: err}
	}
	return nil
}

// Store is the persistence collaborator. Subscriptions deliver the
// current snapshot immediately and again after every write until the
// returned cancel function is called. There is no ordering guarantee
// across different collections.
type Store interface {
	Subscribe(collection string, fn func([]Document)) (cancel func(), err error)
	SubscribeDoc(path string, fn func(*Document)) (cancel func(), err error)
	Create(collection string, data any) (id string, err error)
	SetDoc(path string, data any, merge bool) error
	Update(path string, partial any) error
	Delete(path string) error
	Close() error
}
