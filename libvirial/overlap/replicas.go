package overlap

import (
	"context"

	"github.com/fine-structures/virial/virial"
	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"golang.org/x/sync/errgroup"
)

// RunReplicas runs count independent engines made by newEngine and pools their production blocks.
//
// Replica 0 searches for α; every other replica starts from that α.  Equilibration and
// production of all replicas run concurrently.
func RunReplicas(ctx context.Context, count int, newEngine func(replica int) (*Engine, error)) (Result, error) {
	if count < 1 {
		return Result{}, errors.Wrapf(virial.ErrBadConfig, "%d replicas", count)
	}

	engines := make([]*Engine, count)
	for i := range engines {
		e, err := newEngine(i)
		if err != nil {
			return Result{}, err
		}
		engines[i] = e
	}

	lead := engines[0]
	if !lead.biasReady {
		if err := lead.SearchBias(); err != nil {
			return Result{}, err
		}
	}
	for _, e := range engines[1:] {
		if err := e.SetBias(lead.alpha); err != nil {
			return Result{}, err
		}
	}

	grp, ctx := errgroup.WithContext(ctx)
	for i, e := range engines {
		i, e := i, e
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.Equilibrate(); err != nil {
				return errors.Wrapf(err, "replica %d", i)
			}
			if err := e.Produce(); err != nil {
				return errors.Wrapf(err, "replica %d", i)
			}
			klog.V(1).Infof("overlap: replica %d done", i)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return Result{}, err
	}

	pooled := [2]*Accumulator{
		NewAccumulator(2, lead.acc[0].BlockSize()),
		NewAccumulator(2, lead.acc[1].BlockSize()),
	}
	for _, e := range engines {
		pooled[0].Merge(e.acc[0])
		pooled[1].Merge(e.acc[1])
	}
	res := Combine(lead.alpha, lead.sys.ReferenceCoefficient, pooled[0], pooled[1])
	res.Chains[0].StepSize = lead.chains[0].Move.StepSize()
	res.Chains[1].StepSize = lead.chains[1].Move.StepSize()
	res.Chains[0].Acceptance = lead.chains[0].Acceptance()
	res.Chains[1].Acceptance = lead.chains[1].Acceptance()
	return res, nil
}
