package chat

import "time"

// ChannelID is a channel handle, unique within the process.
type ChannelID uint16

const (
	// ChannelGuild is the reserved id every guild channel is exposed under.
	ChannelGuild ChannelID = 0x00
	// ChannelParty is the reserved id every party channel is exposed under.
	ChannelParty ChannelID = 0x08
	// ChannelPrivate is the private-channel creation request id, also
	// carried by the shared placeholder channel.
	ChannelPrivate ChannelID = 0xFFFF
)

// Guild MOTD delivery is deferred so it arrives after the join itself
// has been acknowledged to the client.
const guildMOTDDelay = 150 * time.Millisecond

// Scheduler schedules a fire-once callback after a delay. The callback
// runs on the scheduler's goroutine; the host marshals it back onto its
// tick before touching the registry.
type Scheduler interface {
	Schedule(delay time.Duration, task func())
}

// Channel is a named group-messaging scope with a member set. Public
// channels stay silent about membership changes; restricted ones notify
// their members on join, leave, invite and exclude.
type Channel struct {
	id     ChannelID
	name   string
	public bool
	users  map[uint32]Session
	hooks  HookSet
	sched  Scheduler
}

// NewChannel constructs an empty channel. sched is only consulted by
// the guild channel for deferred MOTD delivery and may be nil.
func NewChannel(id ChannelID, name string, public bool, hooks HookSet, sched Scheduler) *Channel {
	return &Channel{
		id:     id,
		name:   name,
		public: public,
		users:  make(map[uint32]Session),
		hooks:  hooks,
		sched:  sched,
	}
}

func (c *Channel) ID() ChannelID { return c.id }

func (c *Channel) Name() string { return c.name }

func (c *Channel) Public() bool { return c.public }

// HasUser reports whether the session identity is currently a member.
func (c *Channel) HasUser(id uint32) bool {
	_, ok := c.users[id]
	return ok
}

// UserCount returns the current member count.
func (c *Channel) UserCount() int { return len(c.users) }

// AddUser joins the session to the channel. It fails when the session
// is already a member or the onJoin hook vetoes. On a restricted
// channel the JOIN event reaches only the members present before the
// insert, so a session never sees its own join.
func (c *Channel) AddUser(s Session) bool {
	if _, ok := c.users[s.ID()]; ok {
		return false
	}

	if !c.hooks.EvaluateOnJoin(s) {
		return false
	}

	if c.id == ChannelGuild && c.sched != nil {
		if guild := s.Guild(); guild != nil && guild.MOTD != "" {
			motd := guild.MOTD
			c.sched.Schedule(guildMOTDDelay, func() {
				s.SendChannelMessage("", motd, SpeakChannelNormal, ChannelGuild)
			})
		}
	}

	if !c.public {
		for _, member := range c.users {
			member.SendChannelEvent(c.id, s.Name(), ChannelEventJoin)
		}
	}

	c.users[s.ID()] = s
	return true
}

// RemoveUser drops the session from the channel. The LEAVE event goes
// to the remaining members only; onLeave runs afterwards and cannot
// block the leave.
func (c *Channel) RemoveUser(s Session) bool {
	if _, ok := c.users[s.ID()]; !ok {
		return false
	}

	delete(c.users, s.ID())

	if !c.public {
		for _, member := range c.users {
			member.SendChannelEvent(c.id, s.Name(), ChannelEventLeave)
		}
	}

	c.hooks.EvaluateOnLeave(s)
	return true
}

// Talk delivers a message from a member to every current member,
// including the speaker. Non-members cannot speak.
func (c *Channel) Talk(from Session, class SpeakClass, text string) bool {
	if _, ok := c.users[from.ID()]; !ok {
		return false
	}

	for _, member := range c.users {
		member.SendChannelMessage(from.Name(), text, class, c.id)
	}
	return true
}

// SendToAll broadcasts a system notice to every member, bypassing the
// membership check.
func (c *Channel) SendToAll(text string, class SpeakClass) {
	for _, member := range c.users {
		member.SendChannelMessage("", text, class, c.id)
	}
}
