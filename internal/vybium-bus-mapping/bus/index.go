// Package bus groups the operation log into per-domain views keyed by
// location, the shape the state circuit consumes.
package bus

import (
	"context"

	"github.com/ethereum/go-ethereum/log"
	"golang.org/x/sync/errgroup"

	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/core"
	"github.com/vybium/vybium-bus-mapping/internal/vybium-bus-mapping/operation"
)

var logger = log.New("pkg", "bus")

// Index holds the three domain views of one operation log
type Index struct {
	stack   *View[core.Slot]
	memory  *View[core.Address]
	storage *View[core.Word]
}

// Stack returns the stack view, keyed by slot
func (ix *Index) Stack() *View[core.Slot] { return ix.stack }

// Memory returns the memory view, keyed by address
func (ix *Index) Memory() *View[core.Address] { return ix.memory }

// Storage returns the storage view, keyed by storage key
func (ix *Index) Storage() *View[core.Word] { return ix.storage }

// Build groups ops into the three domain views. ops must be strictly
// increasing by sequence number. Up to parallelism views (at most three)
// are built concurrently.
func Build(ctx context.Context, ops []operation.Operation, parallelism int) (*Index, error) {
	for i := 1; i < len(ops); i++ {
		if ops[i].Seq() <= ops[i-1].Seq() {
			return nil, core.NewError(core.ErrTraceInconsistency,
				"operation stream out of order at position %d (#%d after #%d)", i, ops[i].Seq(), ops[i-1].Seq())
		}
	}
	if parallelism < 1 {
		parallelism = 1
	}

	ix := &Index{}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ix.stack = buildView(core.Stack, ops, operation.Operation.Slot)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ix.memory = buildView(core.Memory, ops, operation.Operation.Address)
		return nil
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		ix.storage = buildView(core.Storage, ops, operation.Operation.StorageKey)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Built bus index", "operations", len(ops),
		"stackKeys", ix.stack.Len(), "memoryKeys", ix.memory.Len(), "storageKeys", ix.storage.Len())
	return ix, nil
}

// CheckConsistency runs the read-after-write check on every view
func (ix *Index) CheckConsistency() error {
	if err := ix.stack.CheckConsistency(); err != nil {
		return err
	}
	if err := ix.memory.CheckConsistency(); err != nil {
		return err
	}
	return ix.storage.CheckConsistency()
}
