package virial

import (
	"gonum.org/v1/gonum/spatial/r3"
)

const (

	// MaxPoints is the largest cluster order the diagram generator will accept.
	MaxPoints = 10

	// MaxReeHooverPoints is the largest cluster order for which Ree-Hoover factors are computed.
	// The subset transform behind the factors needs 2^(n(n-1)/2) words of scratch.
	MaxReeHooverPoints = 7
)

// Box is a read-only view of one configuration of cluster points.
type Box interface {

	// NumPoints returns the number of points in this configuration.
	NumPoints() int

	// ID identifies the geometric state of this Box.
	// Two reads returning the same ID are guaranteed to see identical geometry.
	ID() uint64

	// R2 returns the squared separation of points i and j, where i < j.
	R2(i, j int) float64

	// Position returns the position of point i.
	Position(i int) r3.Vec
}

// EnergyOracle supplies pair energies for a configuration.
//
// An EnergyOracle never mutates the Box it is given.
type EnergyOracle interface {
	PairEnergy(i, j int, box Box) float64
}

// PolarizationOracle supplies the induced-polarization energy of a subset of points.
//
// For a pair, PolarizationEnergy returns the pair's polarization energy.
// For a larger subset it returns the total (non-additive) polarization energy of that subset alone.
type PolarizationOracle interface {
	PolarizationEnergy(indices []int, box Box) float64
}

// Cluster is a cluster integrand evaluated at the current configuration of a Box.
type Cluster interface {

	// NumPoints returns the cluster order.
	NumPoints() int

	// Value returns the integrand for the current state of the given Box.
	// Repeated calls for an unchanged Box ID must not re-evaluate any bonds.
	Value(box Box) float64

	// SetTemperature sets the temperature (in energy units) and invalidates any cached values.
	SetTemperature(T float64)
}

// Phase is a stage of an overlap sampling run.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseSearchingBias
	PhaseEquilibrating
	PhaseProduction
	PhaseDone
	PhaseAborted
)

var phaseNames = [...]string{
	"idle",
	"searching-bias",
	"equilibrating",
	"production",
	"done",
	"aborted",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// PrintOpts specifies what is printed when printing a diagram
type PrintOpts struct {
	Label    string // Prefix label
	Weight   bool   // If set, prints the rational weight
	Bonds    bool   // If set, prints the bond expression
	Matrix   bool   // If set, prints the connection matrix
	Symmetry bool   // If set, prints automorphism and labelling counts
}

// DefaultPrintOpts{}
var DefaultPrintOpts = PrintOpts{
	Weight:   true,
	Bonds:    true,
	Symmetry: true,
}

// CatalogContext is a container for open / active diagram catalogs.
type CatalogContext interface {

	// Attaches the given catalog to this context.
	// Fails with ErrCatalogClosed once Close has been called.
	AttachCatalog(cat Closer) error

	// Detaches the given catalog from this context.
	DetachCatalog(cat Closer)

	// Closes all attached catalogs then closes.
	Close()

	// Signals when Close() completed and all attached catalogs have been closed
	Done() <-chan struct{}
}

// Closer is anything a CatalogContext can close on shutdown.
type Closer interface {
	Close() error
}
