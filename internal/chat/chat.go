package chat

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// Private channel ids are allocated first-fit ascending from this pool.
const (
	privatePoolFirst ChannelID = 100
	privatePoolLast  ChannelID = 10000 // exclusive
)

// StaticChannelDef describes one statically configured channel.
type StaticChannelDef struct {
	ID     ChannelID
	Name   string
	Public bool
	Script string // path to a hook script, empty for none
}

// ScriptLoader turns a hook script reference into hook handles the
// evaluator can run later.
type ScriptLoader interface {
	LoadHooks(path string) (Hooks, error)
}

// Chat is the channel registry. It is the sole owner of every channel
// it creates; callers receive non-owning references and must not retain
// them across a deletion. All access is assumed serialized by the host
// (one logical tick at a time), so Chat does no locking of its own.
type Chat struct {
	log   zerolog.Logger
	ev    Evaluator
	sched Scheduler

	normal  map[ChannelID]*Channel
	guild   map[GuildID]*Channel
	party   map[PartyID]*Channel
	private map[ChannelID]*PrivateChannel

	// dummyPrivate is shown to entitled sessions without a private
	// channel as a create-on-interact affordance. It is never joinable.
	dummyPrivate *PrivateChannel
}

// New constructs an empty registry. Static channels are added with
// LoadChannels.
func New(ev Evaluator, sched Scheduler, log zerolog.Logger) *Chat {
	return &Chat{
		log:          log,
		ev:           ev,
		sched:        sched,
		normal:       make(map[ChannelID]*Channel),
		guild:        make(map[GuildID]*Channel),
		party:        make(map[PartyID]*Channel),
		private:      make(map[ChannelID]*PrivateChannel),
		dummyPrivate: NewPrivateChannel(ChannelPrivate, "Private Chat Channel", 0),
	}
}

// LoadChannels registers the statically configured channels. A hook
// script that fails to load is logged and the channel keeps an empty
// hook set; duplicate and reserved ids are skipped outright.
func (c *Chat) LoadChannels(defs []StaticChannelDef, loader ScriptLoader) {
	for _, def := range defs {
		// Reserved ids route to the guild/party/private partitions and
		// would shadow any static channel defined under them.
		if def.ID == ChannelGuild || def.ID == ChannelParty || def.ID == ChannelPrivate {
			c.log.Warn().Uint16("id", uint16(def.ID)).Str("name", def.Name).Msg("reserved channel id, skipping")
			continue
		}
		if _, ok := c.normal[def.ID]; ok {
			c.log.Warn().Uint16("id", uint16(def.ID)).Str("name", def.Name).Msg("duplicate channel id, skipping")
			continue
		}

		var hooks Hooks
		if def.Script != "" && loader != nil {
			loaded, err := loader.LoadHooks(def.Script)
			if err != nil {
				c.log.Warn().Err(err).Str("script", def.Script).Str("name", def.Name).Msg("cannot load channel script")
			} else {
				hooks = loaded
			}
		}

		hookLog := c.log.With().Uint16("channel", uint16(def.ID)).Logger()
		c.normal[def.ID] = NewChannel(def.ID, def.Name, def.Public, NewHookSet(hooks, c.ev, hookLog), c.sched)
	}
}

// GetChannel resolves a channel id for a session, applying the
// channel-kind authorization rules: guild/party ids resolve through the
// session's affiliation, static channels through their canJoin hook,
// private channels through the invitation list. It returns nil when the
// channel does not exist or the session is not authorized.
func (c *Chat) GetChannel(s Session, id ChannelID) *Channel {
	switch id {
	case ChannelGuild:
		if guild := s.Guild(); guild != nil {
			if ch, ok := c.guild[guild.ID]; ok {
				return ch
			}
		}

	case ChannelParty:
		if party, ok := s.Party(); ok {
			if ch, ok := c.party[party]; ok {
				return ch
			}
		}

	default:
		if ch, ok := c.normal[id]; ok {
			if !ch.hooks.EvaluateCanJoin(s) {
				return nil
			}
			return ch
		}
		if pc, ok := c.private[id]; ok && pc.IsInvited(s) {
			return &pc.Channel
		}
	}
	return nil
}

// CreateChannel creates the guild, party or private channel the id
// stands for. It fails when the channel already resolves for this
// session, the required affiliation or entitlement is missing, or the
// private pool is exhausted.
func (c *Chat) CreateChannel(s Session, id ChannelID) *Channel {
	if c.GetChannel(s, id) != nil {
		return nil
	}

	switch id {
	case ChannelGuild:
		guild := s.Guild()
		if guild == nil {
			return nil
		}
		ch := NewChannel(ChannelGuild, guild.Name, false, HookSet{}, c.sched)
		c.guild[guild.ID] = ch
		return ch

	case ChannelParty:
		party, ok := s.Party()
		if !ok {
			return nil
		}
		ch := NewChannel(ChannelParty, "Party", false, HookSet{}, nil)
		c.party[party] = ch
		return ch

	case ChannelPrivate:
		// One private channel per entitled session.
		if !s.Premium() || c.PrivateChannelOf(s) != nil {
			return nil
		}
		for i := privatePoolFirst; i < privatePoolLast; i++ {
			if _, ok := c.private[i]; ok {
				continue
			}
			pc := NewPrivateChannel(i, fmt.Sprintf("%s's Channel", s.Name()), s.ID())
			c.private[i] = pc
			return &pc.Channel
		}
	}
	return nil
}

// DeleteChannel destroys the guild, party or private channel the id
// stands for. Static channels are never deletable. A private channel is
// closed for its members first.
func (c *Chat) DeleteChannel(s Session, id ChannelID) bool {
	switch id {
	case ChannelGuild:
		guild := s.Guild()
		if guild == nil {
			return false
		}
		if _, ok := c.guild[guild.ID]; !ok {
			return false
		}
		delete(c.guild, guild.ID)
		return true

	case ChannelParty:
		party, ok := s.Party()
		if !ok {
			return false
		}
		if _, ok := c.party[party]; !ok {
			return false
		}
		delete(c.party, party)
		return true

	default:
		pc, ok := c.private[id]
		if !ok {
			return false
		}
		pc.CloseChannel()
		delete(c.private, id)
		return true
	}
}

// AddUserToChannel resolves and joins in one step, returning the joined
// channel or nil.
func (c *Chat) AddUserToChannel(s Session, id ChannelID) *Channel {
	ch := c.GetChannel(s, id)
	if ch != nil && ch.AddUser(s) {
		return ch
	}
	return nil
}

// RemoveUserFromChannel resolves and leaves in one step. When the
// leaving session owns the channel, the channel is deleted with it.
func (c *Chat) RemoveUserFromChannel(s Session, id ChannelID) bool {
	ch := c.GetChannel(s, id)
	if ch == nil || !ch.RemoveUser(s) {
		return false
	}

	if pc, ok := c.private[id]; ok && pc.Owner() == s.ID() {
		c.DeleteChannel(s, id)
	}
	return true
}

// RemoveUserFromAllChannels drops the session from every partition,
// deleting any private channel it owns. Used when a session disappears.
func (c *Chat) RemoveUserFromAllChannels(s Session) {
	for _, ch := range c.normal {
		ch.RemoveUser(s)
	}

	for _, ch := range c.party {
		ch.RemoveUser(s)
	}

	for _, ch := range c.guild {
		ch.RemoveUser(s)
	}

	for id, pc := range c.private {
		pc.RemoveUser(s)
		if pc.Owner() == s.ID() {
			c.DeleteChannel(s, id)
		}
	}
}

// TalkToChannel normalizes the message class for the channel kind, runs
// the onSpeak hook and broadcasts on success. Guild officers always
// speak at the elevated class; party and private channels only carry
// the standard channel class.
func (c *Chat) TalkToChannel(s Session, class SpeakClass, text string, id ChannelID) bool {
	ch := c.GetChannel(s, id)
	if ch == nil {
		return false
	}

	if id == ChannelGuild {
		if guild := s.Guild(); guild != nil && guild.Level > 1 {
			class = SpeakChannelOfficer
		} else if class != SpeakChannelNormal {
			class = SpeakChannelNormal
		}
	} else if class != SpeakChannelNormal {
		if _, isPrivate := c.private[id]; isPrivate || id == ChannelParty {
			class = SpeakChannelNormal
		}
	}

	allow, class := ch.hooks.EvaluateOnSpeak(s, class, text)
	if !allow {
		return false
	}

	return ch.Talk(s, class, text)
}

// ChannelName returns the display name the session would see for the
// id, or the empty string when the channel does not resolve.
func (c *Chat) ChannelName(s Session, id ChannelID) string {
	ch := c.GetChannel(s, id)
	if ch == nil {
		return ""
	}
	return ch.Name()
}

// ChannelList returns the channels visible to the session: its guild
// and party channels (created on first listing), the static channels it
// passes canJoin for, and the private channels it is invited to. An
// entitled session without a private channel of its own gets the shared
// placeholder prepended.
func (c *Chat) ChannelList(s Session) []*Channel {
	var list []*Channel

	if s.Guild() != nil {
		ch := c.GetChannel(s, ChannelGuild)
		if ch == nil {
			ch = c.CreateChannel(s, ChannelGuild)
		}
		if ch != nil {
			list = append(list, ch)
		}
	}

	if _, ok := s.Party(); ok {
		ch := c.GetChannel(s, ChannelParty)
		if ch == nil {
			ch = c.CreateChannel(s, ChannelParty)
		}
		if ch != nil {
			list = append(list, ch)
		}
	}

	for _, id := range sortedIDs(c.normal) {
		if ch := c.GetChannel(s, id); ch != nil {
			list = append(list, ch)
		}
	}

	hasPrivate := false
	for _, id := range sortedIDs(c.private) {
		pc := c.private[id]
		if pc.IsInvited(s) {
			list = append(list, &pc.Channel)
		}
		if pc.Owner() == s.ID() {
			hasPrivate = true
		}
	}

	if !hasPrivate && s.Premium() {
		list = append([]*Channel{&c.dummyPrivate.Channel}, list...)
	}
	return list
}

// ChannelByID looks up a static channel without authorization checks.
func (c *Chat) ChannelByID(id ChannelID) *Channel {
	return c.normal[id]
}

// GuildChannelByID looks up a guild channel by guild identity, for
// callers acting on the guild rather than on a session.
func (c *Chat) GuildChannelByID(id GuildID) *Channel {
	return c.guild[id]
}

// PrivateChannelOf returns the private channel the session owns, if
// any.
func (c *Chat) PrivateChannelOf(s Session) *PrivateChannel {
	for _, pc := range c.private {
		if pc.Owner() == s.ID() {
			return pc
		}
	}
	return nil
}

// PrivateChannelByID looks up a private channel by its allocated id.
func (c *Chat) PrivateChannelByID(id ChannelID) *PrivateChannel {
	return c.private[id]
}

func sortedIDs[V any](m map[ChannelID]V) []ChannelID {
	ids := make([]ChannelID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
