package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/traitforge-backend/internal/realtime"
)

// localBus delivers in-process only. Used when no REDIS_ADDR is configured.
type localBus struct {
	mu    sync.RWMutex
	onMsg func(m realtime.SSEMessage)
}

func NewLocalBus() Bus { return &localBus{} }

func (b *localBus) Publish(_ context.Context, msg realtime.SSEMessage) error {
	b.mu.RLock()
	onMsg := b.onMsg
	b.mu.RUnlock()
	if onMsg != nil {
		onMsg(msg)
	}
	return nil
}

func (b *localBus) StartForwarder(_ context.Context, onMsg func(m realtime.SSEMessage)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	b.onMsg = onMsg
	b.mu.Unlock()
	return nil
}

func (b *localBus) Close() error { return nil }
