package matchdebug

import (
	"context"

	"OrbitCS/bot/match"
	"OrbitCS/entity"
)

// Core is the matcher slice the debug handler calls.
type Core interface {
	Match(ctx context.Context, text string, strategy match.Strategy) entity.MatchResult
}
