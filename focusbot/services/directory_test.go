package services

import (
	"context"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
)

func TestDirectory_WithoutClient(t *testing.T) {
	d := NewDirectory(0)

	_, ok := d.DisplayName(context.Background(), nil, 1)
	assert.False(t, ok)
}

func TestDirectory_CacheIsPerGuild(t *testing.T) {
	d := NewDirectory(8)
	guild := snowflake.ID(10)
	d.cache.Add(directoryKey{guildID: guild, userID: 1}, "Nick")

	name, ok := d.DisplayName(context.Background(), &guild, 1)
	assert.True(t, ok)
	assert.Equal(t, "Nick", name)

	_, ok = d.DisplayName(context.Background(), nil, 1)
	assert.False(t, ok)
}

func TestMemberName(t *testing.T) {
	nick := "Nick"
	global := "Global"

	assert.Equal(t, "Nick", memberName(discord.Member{Nick: &nick, User: discord.User{Username: "user"}}))
	assert.Equal(t, "Global", memberName(discord.Member{User: discord.User{Username: "user", GlobalName: &global}}))
	assert.Equal(t, "user", memberName(discord.Member{User: discord.User{Username: "user"}}))
}
