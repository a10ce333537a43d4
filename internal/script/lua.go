// Package script runs channel hook scripts on an embedded Lua
// interpreter. A script is a plain Lua file declaring up to four global
// functions (canJoin, onJoin, onLeave, onSpeak); loading it captures
// each present function into the Lua registry and hands back opaque
// handles the chat package evaluates through.
package script

import (
	"fmt"

	lua "github.com/Shopify/go-lua"
	"github.com/rs/zerolog"

	"github.com/oakmud/chatd/internal/chat"
)

// maxCallDepth bounds reentrant hook evaluation; hitting it fails the
// call instead of overflowing the host stack.
const maxCallDepth = 16

// Registry integer keys 1 and 2 are reserved by go-lua for the main
// thread and the globals table; hook refs are allocated above them.
const hookRefBase = chat.HookRef(lua.RegistryIndexGlobals + 1)

const (
	fnCanJoin = "canJoin"
	fnOnJoin  = "onJoin"
	fnOnLeave = "onLeave"
	fnOnSpeak = "onSpeak"
)

// Evaluator implements chat.Evaluator and chat.ScriptLoader on a single
// Lua state. It is not safe for concurrent use; the registry serializes
// all hook evaluation.
type Evaluator struct {
	state   *lua.State
	log     zerolog.Logger
	nextRef chat.HookRef
	depth   int
}

// NewEvaluator creates a fresh Lua state with the standard libraries
// opened.
func NewEvaluator(log zerolog.Logger) *Evaluator {
	state := lua.NewState()
	lua.OpenLibraries(state)
	return &Evaluator{state: state, log: log, nextRef: hookRefBase}
}

// LoadHooks runs the script file and captures the hook functions it
// declared. Functions the script does not define stay absent. The hook
// globals are cleared up front so a script that fails halfway cannot
// leak its hooks into the next load.
func (e *Evaluator) LoadHooks(path string) (chat.Hooks, error) {
	e.clearHookGlobals()

	if err := lua.LoadFile(e.state, path, ""); err != nil {
		return chat.Hooks{}, fmt.Errorf("load hook script: %w", err)
	}
	if err := e.state.ProtectedCall(0, 0, 0); err != nil {
		return chat.Hooks{}, fmt.Errorf("run hook script: %w", err)
	}

	return chat.Hooks{
		CanJoin: e.captureGlobal(fnCanJoin),
		OnJoin:  e.captureGlobal(fnOnJoin),
		OnLeave: e.captureGlobal(fnOnLeave),
		OnSpeak: e.captureGlobal(fnOnSpeak),
	}, nil
}

func (e *Evaluator) clearHookGlobals() {
	for _, name := range []string{fnCanJoin, fnOnJoin, fnOnLeave, fnOnSpeak} {
		e.state.PushNil()
		e.state.SetGlobal(name)
	}
}

// captureGlobal moves a global function into the registry under a fresh
// ref and clears the global, so the next loaded script cannot inherit
// it.
func (e *Evaluator) captureGlobal(name string) chat.HookRef {
	e.state.Global(name)
	if !e.state.IsFunction(-1) {
		e.state.Pop(1)
		return chat.HookNone
	}

	ref := e.nextRef
	e.nextRef++
	e.state.RawSetInt(lua.RegistryIndex, int(ref))

	e.state.PushNil()
	e.state.SetGlobal(name)
	return ref
}

// CanJoin calls canJoin(cid).
func (e *Evaluator) CanJoin(ref chat.HookRef, s chat.Session) (bool, error) {
	return e.callBool(ref, s)
}

// OnJoin calls onJoin(cid).
func (e *Evaluator) OnJoin(ref chat.HookRef, s chat.Session) (bool, error) {
	return e.callBool(ref, s)
}

// OnLeave calls onLeave(cid); the result is discarded.
func (e *Evaluator) OnLeave(ref chat.HookRef, s chat.Session) error {
	_, err := e.callBool(ref, s)
	return err
}

// OnSpeak calls onSpeak(cid, class, message). A boolean result decides
// delivery with the class unchanged; a numeric result allows delivery
// and rewrites the class.
func (e *Evaluator) OnSpeak(ref chat.HookRef, s chat.Session, class chat.SpeakClass, text string) (bool, chat.SpeakClass, error) {
	if err := e.enter(); err != nil {
		return false, class, err
	}
	defer e.leave()

	base := e.state.Top()
	if err := e.pushHook(ref); err != nil {
		return false, class, err
	}

	e.state.PushInteger(int(s.ID()))
	e.state.PushInteger(int(class))
	e.state.PushString(text)

	if err := e.state.ProtectedCall(3, 1, 0); err != nil {
		e.state.SetTop(base)
		return false, class, fmt.Errorf("call onSpeak: %w", err)
	}

	allow := false
	switch {
	case e.state.IsBoolean(-1):
		allow = e.state.ToBoolean(-1)
	case e.state.IsNumber(-1):
		if n, ok := e.state.ToInteger(-1); ok {
			allow = true
			class = chat.SpeakClass(n)
		}
	}

	if e.state.Top() != base+1 {
		e.log.Error().Int("hook", int(ref)).Msg("hook left the lua stack unbalanced")
	}
	e.state.SetTop(base)
	return allow, class, nil
}

func (e *Evaluator) callBool(ref chat.HookRef, s chat.Session) (bool, error) {
	if err := e.enter(); err != nil {
		return false, err
	}
	defer e.leave()

	base := e.state.Top()
	if err := e.pushHook(ref); err != nil {
		return false, err
	}

	e.state.PushInteger(int(s.ID()))

	if err := e.state.ProtectedCall(1, 1, 0); err != nil {
		e.state.SetTop(base)
		return false, fmt.Errorf("call hook: %w", err)
	}

	result := e.state.ToBoolean(-1)
	e.state.SetTop(base)
	return result, nil
}

// pushHook puts the captured hook function on the stack, leaving the
// stack untouched on failure.
func (e *Evaluator) pushHook(ref chat.HookRef) error {
	e.state.RawGetInt(lua.RegistryIndex, int(ref))
	if !e.state.IsFunction(-1) {
		e.state.Pop(1)
		return fmt.Errorf("hook ref %d is not callable", ref)
	}
	return nil
}

func (e *Evaluator) enter() error {
	if e.depth >= maxCallDepth {
		return fmt.Errorf("hook call depth exceeded %d", maxCallDepth)
	}
	e.depth++
	return nil
}

func (e *Evaluator) leave() { e.depth-- }
