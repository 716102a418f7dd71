package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dtapi/user-service/internal/core/domain"
	"github.com/dtapi/user-service/internal/core/ports"
	"github.com/dtapi/user-service/internal/infrastructure/metrics"
)

// ReconcileResult summarises the writes made by one reconciliation.
type ReconcileResult struct {
	Created int
	Kept    int
	Deleted int64
}

// Reconciler brings a user's association set to a submitted target set.
type Reconciler struct {
	log zerolog.Logger
}

// NewReconciler returns a Reconciler logging through log.
func NewReconciler(log zerolog.Logger) *Reconciler {
	return &Reconciler{log: log}
}

// Sync reconciles blacklist and language edges.
//
// With a non-empty target set every missing edge is created and, once all
// targets are processed, edges whose target was not submitted are deleted.
// With an empty target set every edge of kind for the user is deleted.
func (r *Reconciler) Sync(ctx context.Context, edges ports.EdgeRepository, kind domain.EdgeKind, userID int64, targets []int64) (ReconcileResult, error) {
	var res ReconcileResult

	if len(targets) == 0 {
		n, err := edges.DeleteAllEdges(ctx, kind, userID)
		if err != nil {
			return res, fmt.Errorf("reconcile %s: delete all: %w", kind, err)
		}
		res.Deleted = n
		r.record(kind, userID, res)
		return res, nil
	}

	processed, err := r.insertMissing(ctx, edges, kind, userID, targets, &res)
	if err != nil {
		return res, err
	}

	n, err := edges.DeleteEdgesExcept(ctx, kind, userID, processed)
	if err != nil {
		return res, fmt.Errorf("reconcile %s: prune: %w", kind, err)
	}
	res.Deleted = n
	r.record(kind, userID, res)
	return res, nil
}

// Replace reconciles town edges: when targets is non-empty all existing edges
// of kind are dropped first and the targets re-inserted. An empty target set
// leaves the stored edges untouched.
//
// TODO(users): diff towns like languages once clients always send the full
// town list.
func (r *Reconciler) Replace(ctx context.Context, edges ports.EdgeRepository, kind domain.EdgeKind, userID int64, targets []int64) (ReconcileResult, error) {
	var res ReconcileResult
	if len(targets) == 0 {
		return res, nil
	}

	n, err := edges.DeleteAllEdges(ctx, kind, userID)
	if err != nil {
		return res, fmt.Errorf("reconcile %s: delete all: %w", kind, err)
	}
	res.Deleted = n

	if _, err := r.insertMissing(ctx, edges, kind, userID, targets, &res); err != nil {
		return res, err
	}
	r.record(kind, userID, res)
	return res, nil
}

// insertMissing creates an edge for every target not yet linked and returns
// the distinct targets in submission order.
func (r *Reconciler) insertMissing(ctx context.Context, edges ports.EdgeRepository, kind domain.EdgeKind, userID int64, targets []int64, res *ReconcileResult) ([]int64, error) {
	processed := make([]int64, 0, len(targets))
	seen := make(map[int64]struct{}, len(targets))

	for _, targetID := range targets {
		if _, dup := seen[targetID]; dup {
			continue
		}
		seen[targetID] = struct{}{}

		exists, err := edges.EdgeExists(ctx, kind, userID, targetID)
		if err != nil {
			return nil, fmt.Errorf("reconcile %s: lookup %d: %w", kind, targetID, err)
		}
		if exists {
			res.Kept++
		} else {
			if err := edges.CreateEdge(ctx, kind, userID, targetID); err != nil {
				return nil, fmt.Errorf("reconcile %s: create %d: %w", kind, targetID, err)
			}
			res.Created++
		}
		processed = append(processed, targetID)
	}
	return processed, nil
}

func (r *Reconciler) record(kind domain.EdgeKind, userID int64, res ReconcileResult) {
	metrics.EdgeWritesTotal.WithLabelValues(string(kind), "created").Add(float64(res.Created))
	metrics.EdgeWritesTotal.WithLabelValues(string(kind), "deleted").Add(float64(res.Deleted))

	r.log.Debug().
		Str("kind", string(kind)).
		Int64("user_id", userID).
		Int("created", res.Created).
		Int("kept", res.Kept).
		Int64("deleted", res.Deleted).
		Msg("associations reconciled")
}
