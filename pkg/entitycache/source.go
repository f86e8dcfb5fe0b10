package entitycache

import (
	"context"

	"github.com/nebulastore/store/pkg/types"
)

// PayloadSource reads the raw bytes of an entity's on-disk record. It is
// implemented by pkg/datafile.Manager; defining it here instead of
// importing that package keeps pkg/entitycache from depending on the data
// file manager's concrete type.
type PayloadSource interface {
	ReadBytes(ctx context.Context, pos types.Position, length int64) ([]byte, error)
}
