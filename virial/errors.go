package virial

import "errors"

// Errors
var (
	ErrBadPointCount     = errors.New("bad cluster point count")
	ErrBadReeHooverOrder = errors.New("Ree-Hoover factors not supported at this cluster order")
	ErrBadOptions        = errors.New("bad or inconsistent options")
	ErrBadExpr           = errors.New("bad diagram expression")
	ErrBadBias           = errors.New("bias parameter is not a finite positive number")
	ErrBadPhase          = errors.New("operation not allowed in current phase")
	ErrBadConfig         = errors.New("bad configuration")
	ErrBadCatalogParam   = errors.New("bad catalog param")
	ErrCatalogClosed     = errors.New("catalog is closed")
	ErrUnmarshal         = errors.New("unmarshal failed")
	ErrNoReference       = errors.New("no reference coefficient for this cluster order")
	ErrMismatchedOrder   = errors.New("cluster orders do not match")
)
