package points

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// ResetKey is the built-in action that zeroes the caller's balance.
const ResetKey = "reset"

// MaxActions is the number of buttons a single message can carry (5 rows of 5).
const MaxActions = 25

type Kind int

const (
	KindDelta Kind = iota
	KindReset
)

type Style string

const (
	StylePrimary   Style = "primary"
	StyleSecondary Style = "secondary"
	StyleSuccess   Style = "success"
	StyleDanger    Style = "danger"
)

// Action is one self-reportable behavior and what it does to a balance.
type Action struct {
	Key       string
	Label     string
	Delta     int64
	Kind      Kind
	Style     Style
	Ephemeral bool
}

func DefaultActions() []Action {
	return []Action{
		// punishments
		{Key: "open_youtube", Label: "Open YouTube (punishment)", Delta: -15, Style: StyleDanger, Ephemeral: true},
		{Key: "open_instagram", Label: "Open Instagram (punishment)", Delta: -15, Style: StyleDanger, Ephemeral: true},
		{Key: "video", Label: "Watch Video (punishment)", Delta: -5, Style: StyleDanger, Ephemeral: true},
		{Key: "reel", Label: "Watch Reel (punishment)", Delta: -10, Style: StyleDanger, Ephemeral: true},
		{Key: "open_game", Label: "Open Game (punishment)", Delta: -15, Style: StyleDanger, Ephemeral: true},
		{Key: "dare", Label: "DARE (big)", Delta: -50, Style: StyleSecondary, Ephemeral: true},
		{Key: "double_dare", Label: "DOUBLE DARE (huge)", Delta: -80, Style: StyleSecondary, Ephemeral: true},
		// nourishment
		{Key: "timetable_chunk", Label: "Timetable chunk (nourish)", Delta: 5, Style: StyleSuccess, Ephemeral: true},
		{Key: "make_grad_video", Label: "Make grad video (nourish)", Delta: 15, Style: StyleSuccess, Ephemeral: true},
		{Key: "reconnect_friends", Label: "Reconnect with friends (nourish)", Delta: 10, Style: StyleSuccess, Ephemeral: true},

		{Key: ResetKey, Label: "Reset my points", Kind: KindReset, Style: StylePrimary, Ephemeral: true},
	}
}

// Catalog is a read-only lookup of actions by key. Order is preserved for rendering.
type Catalog struct {
	actions []Action
	byKey   map[string]int
}

func NewCatalog(actions []Action) (*Catalog, error) {
	if len(actions) == 0 {
		return nil, fmt.Errorf("%w: no actions", ErrInvalidCatalog)
	}
	if len(actions) > MaxActions {
		return nil, fmt.Errorf("%w: %d actions, at most %d fit on a panel", ErrInvalidCatalog, len(actions), MaxActions)
	}

	c := &Catalog{
		actions: make([]Action, len(actions)),
		byKey:   make(map[string]int, len(actions)),
	}
	copy(c.actions, actions)

	for i, a := range c.actions {
		if strings.TrimSpace(a.Key) == "" {
			return nil, fmt.Errorf("%w: action %d has an empty key", ErrInvalidCatalog, i)
		}
		if strings.Contains(a.Key, "/") {
			return nil, fmt.Errorf("%w: action key %q must not contain '/'", ErrInvalidCatalog, a.Key)
		}
		if _, dup := c.byKey[a.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate action key %q", ErrInvalidCatalog, a.Key)
		}
		c.byKey[a.Key] = i
	}
	return c, nil
}

func (c *Catalog) Lookup(key string) (Action, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Action{}, false
	}
	return c.actions[i], true
}

// DeltaFor returns the point change for key, 0 when the key is unknown.
func (c *Catalog) DeltaFor(key string) int64 {
	a, ok := c.Lookup(key)
	if !ok || a.Kind != KindDelta {
		return 0
	}
	return a.Delta
}

func (c *Catalog) Actions() []Action {
	out := make([]Action, len(c.actions))
	copy(out, c.actions)
	return out
}

func (c *Catalog) Len() int {
	return len(c.actions)
}

// String and Len make the catalog a fuzzy.Source over "key label".
func (c *Catalog) String(i int) string {
	return c.actions[i].Key + " " + c.actions[i].Label
}

// Search returns up to limit actions ranked by fuzzy match against query.
func (c *Catalog) Search(query string, limit int) []Action {
	query = strings.TrimSpace(strings.ToLower(query))
	if limit <= 0 || limit > MaxActions {
		limit = MaxActions
	}

	if query == "" {
		return c.Actions()[:min(limit, len(c.actions))]
	}

	matches := fuzzy.FindFrom(query, lowered{c})
	out := make([]Action, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, c.actions[m.Index])
	}
	return out
}

type lowered struct{ c *Catalog }

func (l lowered) String(i int) string { return strings.ToLower(l.c.String(i)) }
func (l lowered) Len() int            { return l.c.Len() }
