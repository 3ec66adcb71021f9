package points

import (
	"context"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"golang.org/x/sync/errgroup"
)

const maxConcurrentLookups = 5

// ResolveNames looks up display names for every standing. Lookups that fail
// are left out of the map so rendering falls back to the user id.
func ResolveNames(ctx context.Context, directory Directory, guildID *snowflake.ID, standings []Standing) map[snowflake.ID]string {
	names := make(map[snowflake.ID]string, len(standings))
	if directory == nil {
		return names
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)

	for _, s := range standings {
		s := s
		g.Go(func() error {
			name, ok := directory.DisplayName(gctx, guildID, s.UserID)
			if !ok {
				return nil
			}
			mu.Lock()
			names[s.UserID] = name
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return names
}
