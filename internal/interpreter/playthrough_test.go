package interpreter

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quest-server/internal/compiler"
	"quest-server/internal/expr"
	"quest-server/internal/quest"
)

const arenaSource = `#Arena

_Start_ (#start)

You have {{gold}} gold.{{visits = visits + 1}}

* Fight

  _combat_ {"icon": "arena"}

  - Skeleton

  * on win

    {{gold = gold + 10}}Victory! Gold {{gold}}.

  * on lose

    **end**

* {{gold > 100}} Rich choice

  Rich.

* Rest {"goto": "camp"}

_Camp_ (#camp)

Visits: {{visits}}

**end**
`

func compileArena(t *testing.T) *quest.Node {
	t.Helper()
	log := compiler.NewLog()
	root := compiler.Document(arenaSource, log)
	require.Empty(t, log.Finalize())
	return root
}

func TestPlaythrough_RestPath(t *testing.T) {
	in := newTestInterpreter()
	root := compileArena(t)

	pt, err := in.Start(root, expr.Scope{"gold": 5.0, "visits": 0.0})
	require.NoError(t, err)

	card, err := pt.Card()
	require.NoError(t, err)
	require.Equal(t, CardRoleplay, card.Kind)
	assert.Equal(t, "Start", card.Roleplay.Title)
	assert.Equal(t, "<p>You have 5 gold.</p>", card.Roleplay.Body)
	assert.Equal(t, []Choice{{Text: "Fight", Idx: 0}, {Text: "Rest", Idx: 2}}, card.Roleplay.Choices)

	_, err = pt.Choose(1)
	assert.ErrorIs(t, err, ErrInvalidChoice)

	card, err = pt.Choose(2)
	require.NoError(t, err)
	assert.Equal(t, "Camp", card.Roleplay.Title)
	assert.Equal(t, "<p>Visits: 1</p>", card.Roleplay.Body)
	assert.Equal(t, []Choice{{Text: "End", Idx: 0}}, card.Roleplay.Choices)

	card, err = pt.Choose(0)
	require.NoError(t, err)
	assert.True(t, card.Finished)
	assert.True(t, pt.State().Finished)

	_, err = pt.Choose(0)
	assert.ErrorIs(t, err, ErrQuestFinished)
}

func TestPlaythrough_CombatPath(t *testing.T) {
	in := newTestInterpreter()
	root := compileArena(t)

	pt, err := in.Start(root, expr.Scope{"gold": 5.0, "visits": 0.0})
	require.NoError(t, err)

	card, err := pt.Choose(0)
	require.NoError(t, err)
	require.Equal(t, CardCombat, card.Kind)
	assert.Equal(t, &CombatResult{Icon: "arena", Enemies: []Enemy{{Name: "Skeleton", Tier: 2, Class: "Undead"}}}, card.Combat)

	_, err = pt.Choose(0)
	assert.ErrorIs(t, err, ErrWrongCard)

	t.Run("state survives a round trip", func(t *testing.T) {
		raw, err := json.Marshal(pt.State())
		require.NoError(t, err)
		var st State
		require.NoError(t, json.Unmarshal(raw, &st))

		resumed, err := in.Resume(root, st)
		require.NoError(t, err)
		again, err := resumed.Card()
		require.NoError(t, err)
		assert.Equal(t, card, again)
	})

	card, err = pt.Fire("win")
	require.NoError(t, err)
	assert.Equal(t, "<p>Victory! Gold 15.</p>", card.Roleplay.Body)
	assert.Equal(t, []Choice{{Text: "Next", Idx: 0}}, card.Roleplay.Choices)

	card, err = pt.Choose(0)
	require.NoError(t, err)
	assert.Equal(t, "Camp", card.Roleplay.Title)
	assert.Equal(t, 15.0, pt.State().Scope["gold"])
	assert.Equal(t, 1.0, pt.State().Scope["visits"])
}

func TestPlaythrough_LoseEndsQuest(t *testing.T) {
	in := newTestInterpreter()
	root := compileArena(t)

	pt, err := in.Start(root, expr.Scope{"gold": 5.0, "visits": 0.0})
	require.NoError(t, err)
	_, err = pt.Choose(0)
	require.NoError(t, err)

	card, err := pt.Fire("lose")
	require.NoError(t, err)
	assert.True(t, card.Finished)
}

func TestPlaythrough_Triggers(t *testing.T) {
	in := newTestInterpreter()

	t.Run("goto trigger jumps", func(t *testing.T) {
		camp := quest.RoleplayText(attrs("id", "camp"), 3, "camp")
		root := quest.Quest(nil, 0,
			quest.Trigger("goto camp", nil, 1),
			quest.RoleplayText(nil, 2, "skipped"),
			camp,
		)

		pt, err := in.Start(root, nil)
		require.NoError(t, err)
		assert.Equal(t, camp.Path(), pt.State().Position)
	})

	t.Run("disabled trigger falls through", func(t *testing.T) {
		root := quest.Quest(nil, 0,
			quest.Trigger("end", attrs("if", "false"), 1),
			quest.RoleplayText(nil, 2, "still here"),
		)

		pt, err := in.Start(root, nil)
		require.NoError(t, err)
		card, err := pt.Card()
		require.NoError(t, err)
		assert.Equal(t, "<p>still here</p>", card.Roleplay.Body)
	})

	t.Run("loops are detected", func(t *testing.T) {
		root := quest.Quest(nil, 0,
			quest.Trigger("goto b", attrs("id", "a"), 1),
			quest.Trigger("goto a", attrs("id", "b"), 2),
		)

		_, err := in.Start(root, nil)
		assert.ErrorIs(t, err, ErrTriggerLoop)
	})

	t.Run("unknown trigger", func(t *testing.T) {
		_, err := in.Start(quest.Quest(nil, 0, quest.Trigger("explode", nil, 1)), nil)
		assert.ErrorIs(t, err, ErrUnknownTrigger)
	})

	t.Run("invalid document is rejected", func(t *testing.T) {
		root := quest.Quest(nil, 0, quest.RoleplayText(attrs("onload", "x"), 1, "a"))

		_, err := in.Start(root, nil)
		var se *quest.StructuralError
		assert.ErrorAs(t, err, &se)
	})
}

func TestPlaythrough_FailedChooseKeepsState(t *testing.T) {
	in := newTestInterpreter()
	start := quest.Roleplay(attrs("title", "Start"), 1,
		p("{{x = 1}}Ready?"),
		quest.Choice(attrs("text", "Go"), 2, quest.Trigger("goto nowhere", nil, 3)),
	)
	root := quest.Quest(nil, 0, start)

	pt, err := in.Start(root, nil)
	require.NoError(t, err)
	before := pt.State()

	_, err = pt.Choose(0)
	assert.ErrorIs(t, err, ErrGotoTargetMissing)

	after := pt.State()
	assert.Equal(t, before.Position, after.Position)
	assert.NotContains(t, after.Scope, "x")
	assert.False(t, after.Finished)
}

func TestResume_BadPosition(t *testing.T) {
	in := newTestInterpreter()
	root := compileArena(t)

	_, err := in.Resume(root, State{Position: []int{9, 9}})
	assert.ErrorIs(t, err, ErrBadPosition)

	pt, err := in.Resume(root, State{Finished: true})
	require.NoError(t, err)
	card, err := pt.Card()
	require.NoError(t, err)
	assert.True(t, card.Finished)
}
