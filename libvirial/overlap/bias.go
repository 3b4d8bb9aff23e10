package overlap

import (
	"os"
	"strconv"
	"strings"

	"github.com/fine-structures/virial/virial"
	"github.com/pkg/errors"
)

// ReadBias reads a bias file holding one floating-point value.
func ReadBias(pathname string) (float64, error) {
	buf, err := os.ReadFile(pathname)
	if err != nil {
		return 0, err
	}
	alpha, err := strconv.ParseFloat(strings.TrimSpace(string(buf)), 64)
	if err != nil {
		return 0, errors.Wrapf(virial.ErrBadBias, "%q: %v", pathname, err)
	}
	if !validBias(alpha) {
		return 0, errors.Wrapf(virial.ErrBadBias, "%q holds %v", pathname, alpha)
	}
	return alpha, nil
}

// WriteBias writes alpha to a bias file.
func WriteBias(pathname string, alpha float64) error {
	if !validBias(alpha) {
		return errors.Wrapf(virial.ErrBadBias, "writing %v", alpha)
	}
	line := strconv.FormatFloat(alpha, 'g', -1, 64) + "\n"
	return errors.Wrapf(os.WriteFile(pathname, []byte(line), 0644), "writing bias file %q", pathname)
}
