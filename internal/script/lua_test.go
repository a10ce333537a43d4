package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmud/chatd/internal/chat"
)

type stubSession struct{ id uint32 }

func (s stubSession) ID() uint32                     { return s.id }
func (s stubSession) Name() string                   { return "Stub" }
func (s stubSession) Sex() chat.Sex                  { return chat.SexMale }
func (s stubSession) Guild() *chat.GuildAffiliation  { return nil }
func (s stubSession) Party() (chat.PartyID, bool)    { return 0, false }
func (s stubSession) Premium() bool                  { return false }
func (s stubSession) SendInfoMessage(string)         {}
func (s stubSession) SendChannelClosed(chat.ChannelID) {}

func (s stubSession) SendChannelMessage(string, string, chat.SpeakClass, chat.ChannelID) {}
func (s stubSession) SendChannelEvent(chat.ChannelID, string, chat.ChannelEvent)         {}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hooks.lua")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newTestEvaluator() *Evaluator {
	return NewEvaluator(zerolog.Nop())
}

func TestLoadHooksCapturesOnlyDeclaredFunctions(t *testing.T) {
	e := newTestEvaluator()

	hooks, err := e.LoadHooks(writeScript(t, `
function canJoin(cid)
	return true
end

function onSpeak(cid, class, message)
	return true
end
`))
	require.NoError(t, err)

	assert.NotEqual(t, chat.HookNone, hooks.CanJoin)
	assert.NotEqual(t, chat.HookNone, hooks.OnSpeak)
	assert.Equal(t, chat.HookNone, hooks.OnJoin)
	assert.Equal(t, chat.HookNone, hooks.OnLeave)
}

func TestLoadHooksCapturesAllFourEntryPoints(t *testing.T) {
	e := newTestEvaluator()

	hooks, err := e.LoadHooks(writeScript(t, `
function canJoin(cid)
	return true
end

function onJoin(cid)
	return true
end

function onLeave(cid)
	return true
end

function onSpeak(cid, class, message)
	-- The standard libraries must still be reachable after capture.
	return string.upper(message) == "HI"
end
`))
	require.NoError(t, err)

	s := stubSession{id: 1}

	ok, err := e.CanJoin(hooks.CanJoin, s)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.OnJoin(hooks.OnJoin, s)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, e.OnLeave(hooks.OnLeave, s))

	allow, _, err := e.OnSpeak(hooks.OnSpeak, s, chat.SpeakChannelNormal, "hi")
	require.NoError(t, err)
	assert.True(t, allow)
}

func TestHookRefsStartAboveReservedRegistryKeys(t *testing.T) {
	e := newTestEvaluator()

	hooks, err := e.LoadHooks(writeScript(t, `
function canJoin(cid)
	return true
end

function onSpeak(cid, class, message)
	return true
end
`))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, int(hooks.CanJoin), int(hookRefBase))
	assert.GreaterOrEqual(t, int(hooks.OnSpeak), int(hookRefBase))

	// Loading more scripts must keep the globals table intact.
	for i := 0; i < 3; i++ {
		more, err := e.LoadHooks(writeScript(t, `
function onJoin(cid)
	return true
end
`))
		require.NoError(t, err)
		ok, err := e.OnJoin(more.OnJoin, stubSession{id: 1})
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestLoadHooksMissingFile(t *testing.T) {
	e := newTestEvaluator()

	_, err := e.LoadHooks(filepath.Join(t.TempDir(), "nope.lua"))
	assert.Error(t, err)
}

func TestCanJoinRejectsConfiguredSession(t *testing.T) {
	e := newTestEvaluator()

	hooks, err := e.LoadHooks(writeScript(t, `
function canJoin(cid)
	return cid ~= 42
end
`))
	require.NoError(t, err)

	ok, err := e.CanJoin(hooks.CanJoin, stubSession{id: 7})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.CanJoin(hooks.CanJoin, stubSession{id: 42})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHooksDoNotLeakBetweenScripts(t *testing.T) {
	e := newTestEvaluator()

	first, err := e.LoadHooks(writeScript(t, `
function canJoin(cid)
	return false
end
`))
	require.NoError(t, err)

	second, err := e.LoadHooks(writeScript(t, `
function onJoin(cid)
	return true
end
`))
	require.NoError(t, err)

	assert.Equal(t, chat.HookNone, second.CanJoin, "second script must not inherit the first one's canJoin")

	// The first script's hook stays callable after another load.
	ok, err := e.CanJoin(first.CanJoin, stubSession{id: 1})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailingScriptHooksDoNotLeak(t *testing.T) {
	e := newTestEvaluator()

	// The script defines canJoin before erroring out at top level.
	_, err := e.LoadHooks(writeScript(t, `
function canJoin(cid)
	return false
end

error("boom")
`))
	require.Error(t, err)

	hooks, err := e.LoadHooks(writeScript(t, `
function onJoin(cid)
	return true
end
`))
	require.NoError(t, err)

	assert.Equal(t, chat.HookNone, hooks.CanJoin, "a broken script's hooks must not leak into the next load")
	assert.Equal(t, chat.HookNone, hooks.OnLeave)
	assert.Equal(t, chat.HookNone, hooks.OnSpeak)
	assert.NotEqual(t, chat.HookNone, hooks.OnJoin)
}

func TestOnSpeakResultShapes(t *testing.T) {
	e := newTestEvaluator()

	hooks, err := e.LoadHooks(writeScript(t, `
function onSpeak(cid, class, message)
	if message == "veto" then
		return false
	end
	if message == "rewrite" then
		return 6
	end
	return true
end
`))
	require.NoError(t, err)

	s := stubSession{id: 1}

	allow, class, err := e.OnSpeak(hooks.OnSpeak, s, chat.SpeakChannelNormal, "veto")
	require.NoError(t, err)
	assert.False(t, allow)
	assert.Equal(t, chat.SpeakChannelNormal, class)

	allow, class, err = e.OnSpeak(hooks.OnSpeak, s, chat.SpeakChannelNormal, "rewrite")
	require.NoError(t, err)
	assert.True(t, allow)
	assert.Equal(t, chat.SpeakChannelOfficer, class)

	allow, class, err = e.OnSpeak(hooks.OnSpeak, s, chat.SpeakChannelNormal, "hello")
	require.NoError(t, err)
	assert.True(t, allow)
	assert.Equal(t, chat.SpeakChannelNormal, class)
}

func TestScriptRuntimeErrorSurfaces(t *testing.T) {
	e := newTestEvaluator()

	hooks, err := e.LoadHooks(writeScript(t, `
function canJoin(cid)
	error("boom")
end
`))
	require.NoError(t, err)

	_, err = e.CanJoin(hooks.CanJoin, stubSession{id: 1})
	assert.Error(t, err)
}

func TestRunawayRecursionFailsInsteadOfCrashing(t *testing.T) {
	e := newTestEvaluator()

	hooks, err := e.LoadHooks(writeScript(t, `
function canJoin(cid)
	return canJoin(cid)
end
`))
	require.NoError(t, err)

	// The function recurses on the cleared global, which is nil by the
	// time it runs; the call must error out, not crash the process.
	_, err = e.CanJoin(hooks.CanJoin, stubSession{id: 1})
	assert.Error(t, err)
}

func TestCallDepthGuard(t *testing.T) {
	e := newTestEvaluator()
	e.depth = maxCallDepth

	hooks, err := e.LoadHooks(writeScript(t, `
function canJoin(cid)
	return true
end
`))
	require.NoError(t, err)

	_, err = e.CanJoin(hooks.CanJoin, stubSession{id: 1})
	assert.Error(t, err)
}

func TestStaleRefIsAnError(t *testing.T) {
	e := newTestEvaluator()

	_, err := e.CanJoin(chat.HookRef(999), stubSession{id: 1})
	assert.Error(t, err)
}
