package types

import (
	errorsmod "cosmossdk.io/errors"
)

// ModuleName is the codespace for every registered error.
const ModuleName = "blindengine"

var (
	ErrInvalidSecretRequest   = errorsmod.Register(ModuleName, 2, "invalid secret request")
	ErrUnmergeableStabilizers = errorsmod.Register(ModuleName, 3, "stabilizers cannot be merged")
	ErrForbiddenQuery         = errorsmod.Register(ModuleName, 4, "measurement outcomes are not queryable through the adapter")
	ErrStaleResultsReuse      = errorsmod.Register(ModuleName, 5, "measurement outcome not recorded in the current run")
	ErrDuplicateResultWrite   = errorsmod.Register(ModuleName, 6, "measurement outcome already recorded")

	ErrInvalidGraph      = errorsmod.Register(ModuleName, 10, "invalid resource graph")
	ErrInvalidPattern    = errorsmod.Register(ModuleName, 11, "invalid measurement pattern")
	ErrInvalidColoring   = errorsmod.Register(ModuleName, 12, "invalid graph coloring")
	ErrInvalidTrapLayout = errorsmod.Register(ModuleName, 13, "invalid trap layout")
	ErrUnsupportedPlane  = errorsmod.Register(ModuleName, 14, "measurement plane not supported by blinding")
	ErrBackend           = errorsmod.Register(ModuleName, 15, "executor backend failure")
	ErrInvalidSession    = errorsmod.Register(ModuleName, 16, "invalid session configuration")
)
