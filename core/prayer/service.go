package prayer

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/mutabaah/mutabaah/core/calendar"
	"github.com/mutabaah/mutabaah/core/child"
)

// maxConcurrentChildren bounds the per-child work run in parallel by ReconcileAll and Progress.
const maxConcurrentChildren = 4

type Service struct {
	ledger     Ledger
	children   child.Repository
	reconciler *Reconciler
}

func NewService(ledger Ledger, children child.Repository) *Service {
	return &Service{
		ledger:     ledger,
		children:   children,
		reconciler: NewReconciler(ledger),
	}
}

// Reconcile backfills one child's ledger for w and returns the number of records created.
func (svc *Service) Reconcile(ctx context.Context, childID string, w calendar.Window) (int, error) {
	if _, err := svc.children.GetChild(ctx, childID); err != nil {
		return 0, err
	}
	return svc.reconciler.Reconcile(ctx, childID, w)
}

// ReconcileAll backfills every child's ledger for w concurrently.
// Children are independent: one failure does not undo the others' backfill.
func (svc *Service) ReconcileAll(ctx context.Context, children []child.Child, w calendar.Window) (int, error) {
	var created int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChildren)
	for _, c := range children {
		c := c
		g.Go(func() error {
			n, err := svc.reconciler.Reconcile(gctx, c.ID, w)
			atomic.AddInt64(&created, int64(n))
			return errors.Wrapf(err, "reconciling child %s", c.ID)
		})
	}
	err := g.Wait()
	return int(created), err
}

// Records returns the child's records dated inside w.
func (svc *Service) Records(ctx context.Context, childID string, w calendar.Window) ([]Record, error) {
	return svc.ledger.FindRecords(ctx, childID, w)
}

// RecordsByChild reads the ledger slice of w for every child.
func (svc *Service) RecordsByChild(ctx context.Context, children []child.Child, w calendar.Window) (map[string][]Record, error) {
	var mu sync.Mutex
	byChild := make(map[string][]Record, len(children))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChildren)
	for _, c := range children {
		c := c
		g.Go(func() error {
			recs, err := svc.ledger.FindRecords(gctx, c.ID, w)
			if err != nil {
				return errors.Wrapf(err, "finding records of child %s", c.ID)
			}
			mu.Lock()
			byChild[c.ID] = recs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return byChild, nil
}

// Progress aggregates the children's ledgers over w. Reconcile w first for complete totals.
func (svc *Service) Progress(ctx context.Context, children []child.Child, w calendar.Window) ([]Progress, error) {
	byChild, err := svc.RecordsByChild(ctx, children, w)
	if err != nil {
		return nil, err
	}
	return ComputeProgress(children, byChild, w), nil
}

// Mark creates or updates the child's record for (typ, day).
func (svc *Service) Mark(ctx context.Context, childID string, typ Type, day string, status bool) (Record, error) {
	if _, err := svc.children.GetChild(ctx, childID); err != nil {
		return Record{}, err
	}
	return svc.ledger.UpsertRecord(ctx, childID, typ, day, status)
}

// SetStatus updates an existing record by identity.
func (svc *Service) SetStatus(ctx context.Context, childID, recordID string, status bool) (Record, error) {
	if _, err := svc.children.GetChild(ctx, childID); err != nil {
		return Record{}, err
	}
	return svc.ledger.UpdateStatus(ctx, childID, recordID, status)
}
