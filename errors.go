package react

import "errors"

// Structural and definition errors are detected at construction time and are
// fatal: the author must fix the definition. Update refusal is deliberately
// not an error; it is a boolean the caller acts on.
var (
	// ErrBadShape marks malformed object shapes: no members, duplicate or
	// empty member names, nil members.
	ErrBadShape = errors.New("react: bad object shape")

	// ErrNotConvertible marks callable signatures the native boundary cannot
	// carry.
	ErrNotConvertible = errors.New("react: type not convertible at native boundary")

	// ErrNoRoot is returned by Run when the network builder yields no root
	// object.
	ErrNoRoot = errors.New("react: network did not yield a root object")
)
