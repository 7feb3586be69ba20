package ledger

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Repository persists subscriptions and payment intents.
//
// GetActiveBySubject returns the subject's live subscription, meaning active
// or suspended; ListActive lists every live subscription. Lookup misses
// return ErrNotFound for subscriptions and ErrUnknownPaymentIntent for
// intents. Save methods insert or replace by primary key.
//
// Atomic runs fn as one unit of work: writes made through the repository
// passed to fn are kept when fn returns nil and discarded otherwise. Calling
// Atomic on that repository joins the running unit of work.
type Repository interface {
	Atomic(ctx context.Context, fn func(repo Repository) error) error
	GetSubscription(ctx context.Context, id uuid.UUID) (*Subscription, error)
	GetActiveBySubject(ctx context.Context, subjectID string) (*Subscription, error)
	GetLatestBySubject(ctx context.Context, subjectID string) (*Subscription, error)
	SaveSubscription(ctx context.Context, sub *Subscription) error
	ListActive(ctx context.Context) ([]*Subscription, error)
	GetIntent(ctx context.Context, paymentID string) (*PaymentIntent, error)
	SaveIntent(ctx context.Context, intent *PaymentIntent) error
}

type memoryRepository struct {
	mu            sync.RWMutex
	subscriptions map[uuid.UUID]*Subscription
	intents       map[string]*PaymentIntent
}

// NewMemoryRepository returns an in-process Repository.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		subscriptions: make(map[uuid.UUID]*Subscription),
		intents:       make(map[string]*PaymentIntent),
	}
}

func (r *memoryRepository) GetSubscription(_ context.Context, id uuid.UUID) (*Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, ok := r.subscriptions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sub.Clone(), nil
}

func (r *memoryRepository) GetActiveBySubject(_ context.Context, subjectID string) (*Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, sub := range r.subscriptions {
		if sub.SubjectID == subjectID && sub.Status.IsLive() {
			return sub.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (r *memoryRepository) GetLatestBySubject(_ context.Context, subjectID string) (*Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *Subscription
	for _, sub := range r.subscriptions {
		if sub.SubjectID != subjectID {
			continue
		}
		if latest == nil || sub.CreatedAt.After(latest.CreatedAt) {
			latest = sub
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest.Clone(), nil
}

// SaveSubscription enforces the single live subscription per subject.
func (r *memoryRepository) SaveSubscription(_ context.Context, sub *Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sub.Status.IsLive() {
		for id, other := range r.subscriptions {
			if id != sub.ID && other.SubjectID == sub.SubjectID && other.Status.IsLive() {
				return fmt.Errorf("%w: subscription %s is live", ErrAlreadySubscribed, id)
			}
		}
	}
	r.subscriptions[sub.ID] = sub.Clone()
	return nil
}

func (r *memoryRepository) ListActive(_ context.Context) ([]*Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Subscription, 0)
	for _, sub := range r.subscriptions {
		if sub.Status.IsLive() {
			out = append(out, sub.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *Subscription) int {
		return a.ExpiresAt.Compare(b.ExpiresAt)
	})
	return out, nil
}

func (r *memoryRepository) GetIntent(_ context.Context, paymentID string) (*PaymentIntent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	intent, ok := r.intents[paymentID]
	if !ok {
		return nil, ErrUnknownPaymentIntent
	}
	return intent.Clone(), nil
}

func (r *memoryRepository) SaveIntent(_ context.Context, intent *PaymentIntent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.intents[intent.PaymentID] = intent.Clone()
	return nil
}

// Atomic applies writes as they happen and keeps the previous record of every
// key it touches, restoring them when fn fails or panics. Callers serialize
// units of work that touch the same keys.
func (r *memoryRepository) Atomic(_ context.Context, fn func(repo Repository) error) error {
	tx := &memoryTx{
		memoryRepository: r,
		subscriptions:    make(map[uuid.UUID]*Subscription),
		intents:          make(map[string]*PaymentIntent),
	}

	committed := false
	defer func() {
		if !committed {
			tx.rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	committed = true
	return nil
}

// memoryTx records the state each key had before its first write.
// A nil entry means the key did not exist.
type memoryTx struct {
	*memoryRepository
	subscriptions map[uuid.UUID]*Subscription
	intents       map[string]*PaymentIntent
}

func (tx *memoryTx) Atomic(_ context.Context, fn func(repo Repository) error) error {
	return fn(tx)
}

func (tx *memoryTx) SaveSubscription(ctx context.Context, sub *Subscription) error {
	if _, seen := tx.subscriptions[sub.ID]; !seen {
		tx.mu.RLock()
		tx.subscriptions[sub.ID] = tx.memoryRepository.subscriptions[sub.ID]
		tx.mu.RUnlock()
	}
	return tx.memoryRepository.SaveSubscription(ctx, sub)
}

func (tx *memoryTx) SaveIntent(ctx context.Context, intent *PaymentIntent) error {
	if _, seen := tx.intents[intent.PaymentID]; !seen {
		tx.mu.RLock()
		tx.intents[intent.PaymentID] = tx.memoryRepository.intents[intent.PaymentID]
		tx.mu.RUnlock()
	}
	return tx.memoryRepository.SaveIntent(ctx, intent)
}

func (tx *memoryTx) rollback() {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	for id, prev := range tx.subscriptions {
		if prev == nil {
			delete(tx.memoryRepository.subscriptions, id)
			continue
		}
		tx.memoryRepository.subscriptions[id] = prev
	}
	for id, prev := range tx.intents {
		if prev == nil {
			delete(tx.memoryRepository.intents, id)
			continue
		}
		tx.memoryRepository.intents[id] = prev
	}
}
