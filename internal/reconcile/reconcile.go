// Package reconcile decides how a freshly normalized record relates to
// previously stored state.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/salewatch/salewatch/internal/domain"
)

// Action is the three-way reconciliation outcome tag.
type Action int

const (
	// ActionSkipped means the stored record was left untouched.
	ActionSkipped Action = iota
	// ActionInserted means no record existed and the new one was stored.
	ActionInserted
	// ActionUpdated means the stored record was fully replaced.
	ActionUpdated
)

// String returns the string representation of an action.
func (a Action) String() string {
	switch a {
	case ActionSkipped:
		return "skipped"
	case ActionInserted:
		return "inserted"
	case ActionUpdated:
		return "updated"
	default:
		return "unknown"
	}
}

// Outcome is the result of reconciling one record. Product is only
// meaningful for inserted and updated outcomes.
type Outcome struct {
	Action  Action
	Product domain.Product
}

// Changed reports whether the outcome should propagate downstream.
func (o Outcome) Changed() bool {
	return o.Action != ActionSkipped
}

// Store is the record store surface the engine needs.
type Store interface {
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Upsert(ctx context.Context, p *domain.Product) error
}

// Engine reconciles normalized records against stored state.
type Engine struct {
	store Store
}

// NewEngine creates a reconciliation engine.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Reconcile applies exactly one of insert, update, or skip for the given
// record:
//
//   - insert when no record is stored for the id
//   - update when the stored currency differs from the new currency
//     (the record is fully replaced)
//   - skip otherwise, with no store mutation
//
// The currency comparison is deliberately the only update trigger;
// widening it to other fields changes observable behavior.
func (e *Engine) Reconcile(ctx context.Context, p domain.Product) (Outcome, error) {
	existing, err := e.store.GetByID(ctx, p.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return Outcome{}, fmt.Errorf("reconcile get %d: %w", p.ID, err)
	}

	switch {
	case existing == nil:
		if upsertErr := e.store.Upsert(ctx, &p); upsertErr != nil {
			return Outcome{}, fmt.Errorf("reconcile insert %d: %w", p.ID, upsertErr)
		}
		return Outcome{Action: ActionInserted, Product: p}, nil

	case existing.Currency != p.Currency:
		if upsertErr := e.store.Upsert(ctx, &p); upsertErr != nil {
			return Outcome{}, fmt.Errorf("reconcile update %d: %w", p.ID, upsertErr)
		}
		return Outcome{Action: ActionUpdated, Product: p}, nil

	default:
		return Outcome{Action: ActionSkipped}, nil
	}
}
