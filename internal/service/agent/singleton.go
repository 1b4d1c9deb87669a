package agent

import (
	"context"
	"sync"

	"github.com/wtwq666/smartdata/internal/config"
)

var (
	sharedOnce sync.Once
	shared     *Service
	sharedErr  error
)

// Shared returns the process-wide agent, constructing it on first use.
// Construction happens exactly once even under concurrent first requests;
// a failed construction is also remembered and returned to later callers.
// There is no teardown: the agent lives for the whole process.
func Shared(ctx context.Context, cfg config.AIConfig, businessPath string) (*Service, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = NewService(ctx, cfg, businessPath)
	})
	return shared, sharedErr
}
