package chat

import "fmt"

// PrivateChannel is an invite-only channel owned by the session that
// created it. The owner is always authorized, even without an explicit
// invitation. Owner 0 marks the shared placeholder channel.
type PrivateChannel struct {
	Channel
	owner   uint32
	invites map[uint32]Session
}

// NewPrivateChannel constructs a private channel. Private channels are
// always restricted and carry no hooks.
func NewPrivateChannel(id ChannelID, name string, owner uint32) *PrivateChannel {
	return &PrivateChannel{
		Channel: Channel{
			id:    id,
			name:  name,
			users: make(map[uint32]Session),
		},
		owner:   owner,
		invites: make(map[uint32]Session),
	}
}

func (c *PrivateChannel) Owner() uint32 { return c.owner }

// IsInvited reports whether the session holds an outstanding invitation
// or owns the channel.
func (c *PrivateChannel) IsInvited(s Session) bool {
	if s.ID() == c.owner {
		return true
	}
	_, ok := c.invites[s.ID()]
	return ok
}

// AddInvited records an invitation. It fails if one is already
// outstanding.
func (c *PrivateChannel) AddInvited(s Session) bool {
	if _, ok := c.invites[s.ID()]; ok {
		return false
	}
	c.invites[s.ID()] = s
	return true
}

// RemoveInvited withdraws an invitation. It fails if none is
// outstanding.
func (c *PrivateChannel) RemoveInvited(s Session) bool {
	if _, ok := c.invites[s.ID()]; !ok {
		return false
	}
	delete(c.invites, s.ID())
	return true
}

// Invite records an invitation for target and notifies both parties
// plus the current members. A duplicate invitation is a silent no-op.
func (c *PrivateChannel) Invite(by, target Session) {
	if !c.AddInvited(target) {
		return
	}

	pronoun := "his"
	if by.Sex() == SexFemale {
		pronoun = "her"
	}
	target.SendInfoMessage(fmt.Sprintf("%s invites you to %s private chat channel.", by.Name(), pronoun))
	by.SendInfoMessage(fmt.Sprintf("%s has been invited.", target.Name()))

	for _, member := range c.users {
		member.SendChannelEvent(c.id, target.Name(), ChannelEventInvite)
	}
}

// Exclude withdraws target's invitation, forces it out of the member
// set if present, and signals the channel as closed for it. Excluding a
// session that was never invited is a silent no-op.
func (c *PrivateChannel) Exclude(by, target Session) {
	if !c.RemoveInvited(target) {
		return
	}

	c.RemoveUser(target)

	by.SendInfoMessage(fmt.Sprintf("%s has been excluded.", target.Name()))
	target.SendChannelClosed(c.id)

	for _, member := range c.users {
		member.SendChannelEvent(c.id, target.Name(), ChannelEventExclude)
	}
}

// CloseChannel signals every current member that the channel is gone.
// The registry calls it right before destroying the channel.
func (c *PrivateChannel) CloseChannel() {
	for _, member := range c.users {
		member.SendChannelClosed(c.id)
	}
}
