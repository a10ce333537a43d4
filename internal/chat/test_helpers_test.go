package chat

import "time"

// delivery records one outbound call on a fake session.
type delivery struct {
	kind    string // "info", "message", "event", "closed"
	sender  string
	subject string
	text    string
	class   SpeakClass
	channel ChannelID
	event   ChannelEvent
}

type fakeSession struct {
	id         uint32
	name       string
	sex        Sex
	guild      *GuildAffiliation
	party      PartyID
	hasParty   bool
	premium    bool
	deliveries []delivery
}

func newFakeSession(id uint32, name string) *fakeSession {
	return &fakeSession{id: id, name: name, sex: SexMale}
}

func (f *fakeSession) ID() uint32               { return f.id }
func (f *fakeSession) Name() string             { return f.name }
func (f *fakeSession) Sex() Sex                 { return f.sex }
func (f *fakeSession) Guild() *GuildAffiliation { return f.guild }
func (f *fakeSession) Party() (PartyID, bool)   { return f.party, f.hasParty }
func (f *fakeSession) Premium() bool            { return f.premium }

func (f *fakeSession) SendInfoMessage(text string) {
	f.deliveries = append(f.deliveries, delivery{kind: "info", text: text})
}

func (f *fakeSession) SendChannelMessage(sender, text string, class SpeakClass, channel ChannelID) {
	f.deliveries = append(f.deliveries, delivery{kind: "message", sender: sender, text: text, class: class, channel: channel})
}

func (f *fakeSession) SendChannelEvent(channel ChannelID, subject string, event ChannelEvent) {
	f.deliveries = append(f.deliveries, delivery{kind: "event", channel: channel, subject: subject, event: event})
}

func (f *fakeSession) SendChannelClosed(channel ChannelID) {
	f.deliveries = append(f.deliveries, delivery{kind: "closed", channel: channel})
}

func (f *fakeSession) count(kind string) int {
	n := 0
	for _, d := range f.deliveries {
		if d.kind == kind {
			n++
		}
	}
	return n
}

func (f *fakeSession) channelEvents(event ChannelEvent) []delivery {
	var out []delivery
	for _, d := range f.deliveries {
		if d.kind == "event" && d.event == event {
			out = append(out, d)
		}
	}
	return out
}

func (f *fakeSession) messages() []delivery {
	var out []delivery
	for _, d := range f.deliveries {
		if d.kind == "message" {
			out = append(out, d)
		}
	}
	return out
}

// fakeEvaluator lets tests script hook outcomes; nil funcs default to
// pass-through.
type fakeEvaluator struct {
	canJoin func(HookRef, Session) (bool, error)
	onJoin  func(HookRef, Session) (bool, error)
	onLeave func(HookRef, Session) error
	onSpeak func(HookRef, Session, SpeakClass, string) (bool, SpeakClass, error)
}

func (e *fakeEvaluator) CanJoin(ref HookRef, s Session) (bool, error) {
	if e.canJoin == nil {
		return true, nil
	}
	return e.canJoin(ref, s)
}

func (e *fakeEvaluator) OnJoin(ref HookRef, s Session) (bool, error) {
	if e.onJoin == nil {
		return true, nil
	}
	return e.onJoin(ref, s)
}

func (e *fakeEvaluator) OnLeave(ref HookRef, s Session) error {
	if e.onLeave == nil {
		return nil
	}
	return e.onLeave(ref, s)
}

func (e *fakeEvaluator) OnSpeak(ref HookRef, s Session, class SpeakClass, text string) (bool, SpeakClass, error) {
	if e.onSpeak == nil {
		return true, class, nil
	}
	return e.onSpeak(ref, s, class, text)
}

// fakeScheduler captures scheduled tasks so tests can fire them
// synchronously.
type fakeScheduler struct {
	delays []time.Duration
	tasks  []func()
}

func (f *fakeScheduler) Schedule(delay time.Duration, task func()) {
	f.delays = append(f.delays, delay)
	f.tasks = append(f.tasks, task)
}

func (f *fakeScheduler) fire() {
	tasks := f.tasks
	f.tasks = nil
	f.delays = nil
	for _, task := range tasks {
		task()
	}
}

// fakeLoader hands out fixed hooks regardless of path.
type fakeLoader struct {
	hooks Hooks
	err   error
}

func (f *fakeLoader) LoadHooks(path string) (Hooks, error) {
	return f.hooks, f.err
}
