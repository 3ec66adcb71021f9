package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/snowflake/v2"
	lru "github.com/hashicorp/golang-lru"
)

const defaultDirectoryCacheSize = 1024

type directoryKey struct {
	guildID snowflake.ID
	userID  snowflake.ID
}

// Directory resolves user ids to display names: member cache first, then REST,
// with results memoised in an LRU.
type Directory struct {
	mu     sync.RWMutex
	client bot.Client
	cache  *lru.Cache
}

func NewDirectory(cacheSize int) *Directory {
	if cacheSize <= 0 {
		cacheSize = defaultDirectoryCacheSize
	}
	cache, _ := lru.New(cacheSize)
	return &Directory{cache: cache}
}

// SetClient attaches the bot client once it exists. Lookups before that miss.
func (d *Directory) SetClient(client bot.Client) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.client = client
}

func (d *Directory) DisplayName(ctx context.Context, guildID *snowflake.ID, userID snowflake.ID) (string, bool) {
	key := directoryKey{userID: userID}
	if guildID != nil {
		key.guildID = *guildID
	}
	if v, ok := d.cache.Get(key); ok {
		return v.(string), true
	}

	d.mu.RLock()
	client := d.client
	d.mu.RUnlock()
	if client == nil {
		return "", false
	}

	name, ok := d.lookup(ctx, client, guildID, userID)
	if ok {
		d.cache.Add(key, name)
	}
	return name, ok
}

func (d *Directory) lookup(ctx context.Context, client bot.Client, guildID *snowflake.ID, userID snowflake.ID) (string, bool) {
	if guildID != nil {
		if member, ok := client.Caches().Member(*guildID, userID); ok {
			return memberName(member), true
		}
		member, err := client.Rest().GetMember(*guildID, userID, rest.WithCtx(ctx))
		if err == nil {
			return memberName(*member), true
		}
		slog.Debug("Member lookup failed, trying user",
			slog.String("type", "sys"),
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
	}

	user, err := client.Rest().GetUser(userID, rest.WithCtx(ctx))
	if err != nil {
		slog.Debug("User lookup failed",
			slog.String("type", "sys"),
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
		return "", false
	}
	return userName(*user), true
}

func memberName(m discord.Member) string {
	if m.Nick != nil && *m.Nick != "" {
		return *m.Nick
	}
	return userName(m.User)
}

func userName(u discord.User) string {
	if u.GlobalName != nil && *u.GlobalName != "" {
		return *u.GlobalName
	}
	return u.Username
}
