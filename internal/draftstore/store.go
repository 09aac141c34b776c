// Package draftstore keeps each user's draft invoice between requests.
package draftstore

import (
	"context"
	"sync"

	"invoicedesk/internal/billing"

	"github.com/google/uuid"
)

// Store holds at most one draft per owner. Get on an owner without a draft
// returns an empty draft.
type Store interface {
	Get(ctx context.Context, ownerID uuid.UUID) (billing.Draft, error)
	// Update loads the draft, applies fn and saves the result unless fn fails.
	// Concurrent updates for one owner never overwrite each other.
	Update(ctx context.Context, ownerID uuid.UUID, fn func(d *billing.Draft) error) (billing.Draft, error)
	Delete(ctx context.Context, ownerID uuid.UUID) error
}

type memoryStore struct {
	mu     sync.Mutex
	drafts map[uuid.UUID]billing.Draft
}

// NewMemoryStore keeps drafts in process memory.
func NewMemoryStore() Store {
	return &memoryStore{drafts: make(map[uuid.UUID]billing.Draft)}
}

func (s *memoryStore) Get(ctx context.Context, ownerID uuid.UUID) (billing.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyDraft(s.drafts[ownerID]), nil
}

func (s *memoryStore) Update(ctx context.Context, ownerID uuid.UUID, fn func(d *billing.Draft) error) (billing.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := copyDraft(s.drafts[ownerID])
	if err := fn(&d); err != nil {
		return billing.Draft{}, err
	}
	s.drafts[ownerID] = copyDraft(d)
	return d, nil
}

func (s *memoryStore) Delete(ctx context.Context, ownerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, ownerID)
	return nil
}

func copyDraft(d billing.Draft) billing.Draft {
	d.Items = append([]billing.InvoiceItem(nil), d.Items...)
	return d
}
