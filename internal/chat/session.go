package chat

// GuildID identifies a guild.
type GuildID uint32

// PartyID identifies a party.
type PartyID uint32

// GuildAffiliation describes a session's current guild membership as
// reported by the session layer.
type GuildAffiliation struct {
	ID    GuildID
	Name  string
	Level uint8 // rank level inside the guild; above 1 means officer
	MOTD  string
}

// Sex phrases the private-channel invitation notice.
type Sex uint8

const (
	SexFemale Sex = iota
	SexMale
)

// ChannelEvent classifies membership notifications delivered to the
// members of a restricted channel.
type ChannelEvent uint8

const (
	ChannelEventJoin ChannelEvent = iota
	ChannelEventLeave
	ChannelEventInvite
	ChannelEventExclude
)

// SpeakClass is the delivery category of a channel message. Hook
// scripts may rewrite it to any value the downstream delivery layer
// understands.
type SpeakClass uint8

const (
	SpeakChannelNormal  SpeakClass = 5
	SpeakChannelOfficer SpeakClass = 6
	SpeakChannelRed     SpeakClass = 7
)

// Session is the boundary contract to the player/session object model.
// The registry queries a session for its identity and affiliations and
// pushes channel traffic back through the Send methods. Implementations
// live outside this package; the registry never owns a session.
type Session interface {
	ID() uint32
	Name() string
	Sex() Sex
	Guild() *GuildAffiliation
	Party() (PartyID, bool)
	Premium() bool

	SendInfoMessage(text string)
	SendChannelMessage(sender, text string, class SpeakClass, channel ChannelID)
	SendChannelEvent(channel ChannelID, subject string, event ChannelEvent)
	SendChannelClosed(channel ChannelID)
}
