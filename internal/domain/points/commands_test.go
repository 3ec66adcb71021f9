package points

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands_PerformUnknownAction(t *testing.T) {
	catalog, err := NewCatalog(DefaultActions())
	require.NoError(t, err)

	// storage is never reached for a key outside the catalog
	svc := NewService(nil, catalog, NewCooldownTracker(DefaultCooldown))
	c := NewCommands(svc, nil, nil, 0)

	var sent []discord.MessageCreate
	create := func(msg discord.MessageCreate, _ ...rest.RequestOpt) error {
		sent = append(sent, msg)
		return nil
	}

	require.NoError(t, c.perform(100, "juggling", create))
	require.Len(t, sent, 1)
	require.Len(t, sent[0].Embeds, 1)
	assert.True(t, strings.HasSuffix(sent[0].Embeds[0].Description, "Unknown action. Pick one from the list."))
	assert.Equal(t, discord.MessageFlagEphemeral, sent[0].Flags)
}

func TestIsFault(t *testing.T) {
	assert.False(t, isFault(nil))
	assert.False(t, isFault(ErrGuildOnly))
	assert.False(t, isFault(ErrPermissionDenied))
	assert.False(t, isFault(fmt.Errorf("%w: %q", ErrUnknownAction, "juggling")))
	assert.True(t, isFault(errors.New("disk full")))
}
