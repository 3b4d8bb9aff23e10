package virial

import (
	"math"

	"github.com/pkg/errors"
)

// HardSphereB2 returns the second virial coefficient of hard spheres of diameter sigma.
func HardSphereB2(sigma float64) float64 {
	return 2 * math.Pi * sigma * sigma * sigma / 3
}

// HardSphereReduced returns B_n / B_2^(n-1) for hard spheres.
//
// B3 and B4 are exact; B5..B8 are the Clisby-McCoy values.
func HardSphereReduced(n int) (float64, error) {
	switch n {
	case 2:
		return 1, nil
	case 3:
		return 0.625, nil
	case 4:
		return 2707.0/4480 + 219*math.Sqrt2/(2240*math.Pi) - 4131/(2240*math.Pi)*math.Asin(1/math.Sqrt(3)), nil
	case 5:
		return 0.1102522175, nil
	case 6:
		return 0.03888198, nil
	case 7:
		return 0.01302354, nil
	case 8:
		return 0.0041832, nil
	}
	return 0, errors.Wrapf(ErrNoReference, "hard sphere B%d", n)
}

// HardSphereB returns B_n for hard spheres of diameter sigma.
func HardSphereB(n int, sigma float64) (float64, error) {
	reduced, err := HardSphereReduced(n)
	if err != nil {
		return 0, err
	}
	return reduced * math.Pow(HardSphereB2(sigma), float64(n-1)), nil
}
