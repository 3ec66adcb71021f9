package points

import (
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionKey(t *testing.T) {
	key, ok := ActionKey(ActionCustomID("double_dare"))
	assert.True(t, ok)
	assert.Equal(t, "double_dare", key)

	_, ok = ActionKey(actionComponentPrefix)
	assert.False(t, ok)

	_, ok = ActionKey("/other/reel")
	assert.False(t, ok)
}

func TestPanelRows(t *testing.T) {
	catalog, err := NewCatalog(DefaultActions())
	require.NoError(t, err)

	rows := PanelRows(catalog)
	require.Len(t, rows, 3)

	sizes := make([]int, 0, len(rows))
	for _, row := range rows {
		ar, ok := row.(discord.ActionRowComponent)
		require.True(t, ok)
		sizes = append(sizes, len(ar.Components()))
	}
	assert.Equal(t, []int{5, 5, 1}, sizes)

	first := rows[0].(discord.ActionRowComponent).Components()[0].(discord.ButtonComponent)
	assert.Equal(t, discord.ButtonStyleDanger, first.Style)
	assert.Equal(t, ActionCustomID("open_youtube"), first.CustomID)
}

func TestActorFrom(t *testing.T) {
	guild := testGuildID

	_, err := actorFrom(fakeInteraction{user: discord.User{ID: 1}})
	assert.ErrorIs(t, err, ErrGuildOnly)

	actor, err := actorFrom(fakeInteraction{
		user:    discord.User{ID: 1},
		guildID: &guild,
		member:  &discord.ResolvedMember{Permissions: discord.PermissionAdministrator},
	})
	require.NoError(t, err)
	assert.True(t, actor.Admin)

	actor, err = actorFrom(fakeInteraction{
		user:    discord.User{ID: 2},
		guildID: &guild,
		member:  &discord.ResolvedMember{Permissions: discord.PermissionSendMessages},
	})
	require.NoError(t, err)
	assert.False(t, actor.Admin)
	assert.EqualValues(t, 2, actor.ID)
}

var testGuildID = snowflake.ID(4242)

type fakeInteraction struct {
	user    discord.User
	guildID *snowflake.ID
	member  *discord.ResolvedMember
}

func (f fakeInteraction) User() discord.User              { return f.user }
func (f fakeInteraction) GuildID() *snowflake.ID          { return f.guildID }
func (f fakeInteraction) Member() *discord.ResolvedMember { return f.member }
