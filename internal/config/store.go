package config

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/yockii/yoctl/pkg/logging"
)

// Remote is the endpoint a Store synchronizes with. *api.Client implements it.
type Remote interface {
	GetConfig(ctx context.Context) (*Document, error)
	PutConfig(ctx context.Context, doc *Document) error
}

// Store owns the in-memory configuration document. Callers never share the
// document itself: Snapshot and subscriber callbacks receive copies, and all
// replacements go through Load and Save.
type Store struct {
	remote Remote

	mu          sync.RWMutex
	doc         *Document
	pending     *Document
	subscribers map[uint64]func(*Document)
	nextSubID   uint64

	// loads coalesces overlapping Load calls into one request.
	loads singleflight.Group
}

// NewStore creates an empty store bound to remote.
func NewStore(remote Remote) *Store {
	return &Store{
		remote:      remote,
		subscribers: make(map[uint64]func(*Document)),
	}
}

// Load fetches the document and replaces the in-memory copy wholesale. On
// failure the previous document is kept and the error is returned; there is
// no retry.
func (s *Store) Load(ctx context.Context) error {
	_, err, _ := s.loads.Do("load", func() (interface{}, error) {
		doc, err := s.remote.GetConfig(ctx)
		if err != nil {
			logging.Warn("Store", "Failed to load configuration: %v", err)
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		if doc == nil {
			doc = NewDocument()
		}
		doc.Normalize()
		s.replace(doc)
		logging.Debug("Store", "Loaded configuration: %d agents, %d providers, %d channels",
			len(doc.Agents), len(doc.Providers), len(doc.Channels))
		return nil, nil
	})
	return err
}

// Save writes doc to the server as a full document. On success the pending
// buffer is cleared and the store reloads to pick up server-side
// normalization; a failed reload is reported as *ReloadError. On failure doc
// is kept as the pending buffer and the in-memory document is untouched.
func (s *Store) Save(ctx context.Context, doc *Document) error {
	if doc == nil {
		return errors.New("cannot save an empty document")
	}
	body := doc.Clone()
	body.Normalize()

	if err := s.remote.PutConfig(ctx, body); err != nil {
		s.mu.Lock()
		s.pending = body
		s.mu.Unlock()
		logging.Warn("Store", "Failed to save configuration, keeping edits for retry: %v", err)
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
	logging.Info("Store", "Configuration saved")

	if err := s.Load(ctx); err != nil {
		return &ReloadError{Err: err}
	}
	return nil
}

// RetryPending re-sends the document from the last failed Save.
func (s *Store) RetryPending(ctx context.Context) error {
	pending := s.Pending()
	if pending == nil {
		return ErrNothingPending
	}
	return s.Save(ctx, pending)
}

// Pending returns a copy of the document whose save failed, or nil.
func (s *Store) Pending() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending.Clone()
}

// Snapshot returns a copy of the current document, or nil before the first
// successful Load.
func (s *Store) Snapshot() *Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Loaded reports whether a document is present.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc != nil
}

// Subscribe registers fn to be called with a copy of the document each time
// it is replaced. The returned function removes the subscription.
func (s *Store) Subscribe(fn func(doc *Document)) (cancel func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

func (s *Store) replace(doc *Document) {
	s.mu.Lock()
	s.doc = doc
	subs := make([]func(*Document), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(doc.Clone())
	}
}
