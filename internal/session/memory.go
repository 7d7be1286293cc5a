package session

import (
	"context"
	"sync"

	"github.com/RealSaake/waveline-sub000/internal/core/domain"
	"github.com/RealSaake/waveline-sub000/internal/core/ports"
)

// MemoryVault is a non-persisted TokenVault. Used in tests and as the
// fallback store when no database path is configured.
type MemoryVault struct {
	mu   sync.Mutex
	pair *domain.TokenPair
}

var _ ports.TokenVault = (*MemoryVault)(nil)

func NewMemoryVault() *MemoryVault { return &MemoryVault{} }

func (v *MemoryVault) Load(ctx context.Context) (domain.TokenPair, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pair == nil {
		return domain.TokenPair{}, domain.ErrNoSession
	}
	return *v.pair, nil
}

func (v *MemoryVault) Store(ctx context.Context, pair domain.TokenPair) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	p := pair
	v.pair = &p
	return nil
}

func (v *MemoryVault) Clear(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pair = nil
	return nil
}
