package typedict

import "errors"

var (
	errVersionNotIncreasing = errors.New("typedict: new version must be greater than the latest registered version")
	errPrimitiveMismatch    = errors.New("typedict: new version must match the lineage's is_primitive flag")
	errHandlerMissing       = errors.New("typedict: no handler registered for type id")
	errLengthOutOfRange     = errors.New("typedict: entity length outside type's declared bounds")
	errUnknownTID           = errors.New("typedict: unknown type id")
)
