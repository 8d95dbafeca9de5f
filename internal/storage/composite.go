package storage

import (
	"context"
	"errors"
	"fmt"

	"ytaudit/internal/spec"
)

// Composite fans writes out to every backing store. Reads fall through the
// stores in priority order; listings come from the first store.
type Composite struct {
	stores []Store
}

// NewComposite builds a composite over the given stores, in priority order.
func NewComposite(stores ...Store) *Composite {
	return &Composite{stores: stores}
}

func (c *Composite) SaveResult(ctx context.Context, taskID string, report spec.Report, meta Metadata) error {
	var errs []error
	for _, s := range c.stores {
		if err := s.SaveResult(ctx, taskID, report, meta); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadResult returns the record from the first store that has it.
func (c *Composite) LoadResult(ctx context.Context, taskID string) (Record, error) {
	for _, s := range c.stores {
		rec, err := s.LoadResult(ctx, taskID)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Record{}, err
		}
	}
	return Record{}, fmt.Errorf("%w: %s", ErrNotFound, taskID)
}

func (c *Composite) ListResults(ctx context.Context) ([]string, error) {
	if len(c.stores) == 0 {
		return nil, nil
	}
	return c.stores[0].ListResults(ctx)
}

func (c *Composite) Close() error {
	var errs []error
	for _, s := range c.stores {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
