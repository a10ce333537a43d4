package chat

import "github.com/rs/zerolog"

// HookRef identifies a hook loaded into an Evaluator. The zero value
// HookNone means the extension point is absent and defaults apply.
type HookRef int

const HookNone HookRef = 0

// Hooks are the up-to-four entry points a channel script can provide.
type Hooks struct {
	CanJoin HookRef
	OnJoin  HookRef
	OnLeave HookRef
	OnSpeak HookRef
}

// Evaluator runs externally supplied hook logic. Implementations may be
// an embedded interpreter, a plugin, or a static dispatch table; channel
// code depends only on this interface.
type Evaluator interface {
	CanJoin(ref HookRef, s Session) (bool, error)
	OnJoin(ref HookRef, s Session) (bool, error)
	OnLeave(ref HookRef, s Session) error
	// OnSpeak may veto the message or rewrite its class while allowing it.
	OnSpeak(ref HookRef, s Session, class SpeakClass, text string) (bool, SpeakClass, error)
}

// HookSet binds one channel's hooks to the evaluator that runs them.
// The zero value has every hook absent and passes everything through.
type HookSet struct {
	hooks Hooks
	ev    Evaluator
	log   zerolog.Logger
}

// NewHookSet builds a hook set. A nil evaluator degrades every hook to
// its default-pass behavior.
func NewHookSet(hooks Hooks, ev Evaluator, log zerolog.Logger) HookSet {
	return HookSet{hooks: hooks, ev: ev, log: log}
}

// EvaluateCanJoin reports whether the session may see or join the
// channel. An evaluator failure is logged and counts as a refusal.
func (h HookSet) EvaluateCanJoin(s Session) bool {
	if h.hooks.CanJoin == HookNone || h.ev == nil {
		return true
	}
	ok, err := h.ev.CanJoin(h.hooks.CanJoin, s)
	if err != nil {
		h.log.Error().Err(err).Uint32("session", s.ID()).Msg("canJoin hook failed")
		return false
	}
	return ok
}

// EvaluateOnJoin runs the join notification hook. A false result vetoes
// the join even after canJoin passed.
func (h HookSet) EvaluateOnJoin(s Session) bool {
	if h.hooks.OnJoin == HookNone || h.ev == nil {
		return true
	}
	ok, err := h.ev.OnJoin(h.hooks.OnJoin, s)
	if err != nil {
		h.log.Error().Err(err).Uint32("session", s.ID()).Msg("onJoin hook failed")
		return false
	}
	return ok
}

// EvaluateOnLeave is fire-and-observe: its outcome never blocks a leave.
func (h HookSet) EvaluateOnLeave(s Session) {
	if h.hooks.OnLeave == HookNone || h.ev == nil {
		return
	}
	if err := h.ev.OnLeave(h.hooks.OnLeave, s); err != nil {
		h.log.Error().Err(err).Uint32("session", s.ID()).Msg("onLeave hook failed")
	}
}

// EvaluateOnSpeak intercepts a message before broadcast. It returns
// whether delivery may proceed and the possibly rewritten class. An
// evaluator failure is logged and vetoes the message.
func (h HookSet) EvaluateOnSpeak(s Session, class SpeakClass, text string) (bool, SpeakClass) {
	if h.hooks.OnSpeak == HookNone || h.ev == nil {
		return true, class
	}
	ok, rewritten, err := h.ev.OnSpeak(h.hooks.OnSpeak, s, class, text)
	if err != nil {
		h.log.Error().Err(err).Uint32("session", s.ID()).Msg("onSpeak hook failed")
		return false, class
	}
	return ok, rewritten
}
