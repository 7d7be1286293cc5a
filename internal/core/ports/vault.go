package ports

import (
	"context"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
)

// TokenVault is the persisted store of the OAuth token pair. The pair is
// owned exclusively by the session manager; everything else treats it as
// opaque. Load returns domain.ErrNoSession when nothing is stored.
type TokenVault interface {
	Load(ctx context.Context) (domain.TokenPair, error)
	Store(ctx context.Context, pair domain.TokenPair) error
	Clear(ctx context.Context) error
}
