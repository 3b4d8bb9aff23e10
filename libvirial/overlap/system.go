package overlap

import (
	"context"

	"github.com/fine-structures/virial/libvirial/cluster"
	"github.com/fine-structures/virial/libvirial/diagram"
	"github.com/fine-structures/virial/libvirial/mayer"
	"github.com/fine-structures/virial/virial"
)

// DiagramOpts returns the generation options used for both clusters of sys.
func DiagramOpts(sys *virial.SystemConfig) diagram.GenerateOpts {
	return diagram.GenerateOpts{
		N:                         sys.Points,
		ExcludeArticulationPoints: true,
		ReeHoover:                 sys.ReeHoover && sys.Points <= virial.MaxReeHooverPoints,
	}
}

// SystemsFor builds the hard-sphere reference and the target cluster sums for cfg,
// drawing diagrams from cat (which may be nil).
func SystemsFor(cfg *virial.Config, cat *diagram.Catalog) (Systems, error) {
	sys := &cfg.System

	refCoeff, err := virial.HardSphereB(sys.Points, sys.RefSigma)
	if err != nil {
		return Systems{}, err
	}
	targetFn, err := mayer.ForSystem(sys)
	if err != nil {
		return Systems{}, err
	}
	diagrams, err := diagram.GenerateCached(cat, DiagramOpts(sys))
	if err != nil {
		return Systems{}, err
	}
	bonds := diagram.BondsFor(diagrams, false)

	reference := func() (virial.Cluster, error) {
		return cluster.NewSum(bonds, mayer.HardSphere{Sigma: sys.RefSigma}, sys.Temperature)
	}
	target := func() (virial.Cluster, error) {
		s, err := cluster.NewSum(bonds, targetFn, sys.Temperature)
		if err != nil {
			return nil, err
		}
		var c virial.Cluster = s
		if pol := sys.Polarization; pol != nil {
			maxOrder := pol.MaxOrder
			if maxOrder == 0 {
				maxOrder = sys.Points
			}
			if c, err = cluster.NewPolarizable(s, mayer.InductionFor(pol), maxOrder); err != nil {
				return nil, err
			}
		}
		if sys.Flip {
			c = cluster.NewFlipped(c)
		}
		return c, nil
	}

	return Systems{
		N:                    sys.Points,
		Reference:            reference,
		Target:               target,
		ReferenceCoefficient: refCoeff,
	}, nil
}

// Run validates cfg and performs its overlap run with cfg.Sampling.Replicas replicas,
// each seeded from cfg.Sampling.Seed plus its replica index.
func Run(ctx context.Context, cfg *virial.Config, cat *diagram.Catalog) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	sys, err := SystemsFor(cfg, cat)
	if err != nil {
		return Result{}, err
	}
	return RunReplicas(ctx, cfg.Sampling.Replicas, func(replica int) (*Engine, error) {
		sampling := cfg.Sampling
		sampling.Seed += int64(replica)
		return NewEngine(sys, sampling, cfg.Bias)
	})
}
