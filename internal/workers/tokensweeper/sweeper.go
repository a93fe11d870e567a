package tokensweeper

import (
	"context"
	"log"
	"time"

	"tradepost/internal/ports"
)

// Grace keeps revoked tokens around long enough for a late resolve to report
// "revoked" instead of "unknown".
const Grace = 24 * time.Hour

// Run sweeps dead session tokens on a ticker until ctx is done. Expired and
// long-revoked rows carry no information worth keeping; the sweep keeps the
// token table from growing without bound.
func Run(ctx context.Context, tokens ports.TokenRepository, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := Sweep(ctx, tokens); err != nil {
					log.Printf("token sweep error: %v", err)
				} else if n > 0 {
					log.Printf("token sweep: purged %d", n)
				}
			}
		}
	}()
}

// Sweep performs one purge pass and reports how many tokens went.
func Sweep(ctx context.Context, tokens ports.TokenRepository) (int64, error) {
	return tokens.PurgeExpiredTokens(ctx, time.Now().Add(-Grace))
}
