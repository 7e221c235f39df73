// Package platformtest provides an in-memory platform.Client for tests.
package platformtest

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/platform"
)

// Call records one mutating platform call.
type Call struct {
	Op     string
	Guild  string
	User   string
	Role   string
	Until  time.Time
	Target []string
}

// Client is a lock-protected fake guild: channels of messages, members and roles.
type Client struct {
	mu       sync.Mutex
	messages map[string][]platform.Message // newest first
	members  map[string]map[string]*platform.Member
	roles    map[string][]platform.Role
	calls    []Call

	// Errors injected per operation name ("bulk delete", "mute", "ban", "remove role", ...).
	Errors map[string]error

	// Hooks run before the operation of the same name completes. They may block.
	Hooks map[string]func()
}

// New returns an empty fake.
func New() *Client {
	return &Client{
		messages: make(map[string][]platform.Message),
		members:  make(map[string]map[string]*platform.Member),
		roles:    make(map[string][]platform.Role),
		Errors:   make(map[string]error),
		Hooks:    make(map[string]func()),
	}
}

// AddMessages appends messages to a channel. Pass them newest first.
func (c *Client) AddMessages(channelID string, msgs ...platform.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[channelID] = append(c.messages[channelID], msgs...)
}

// Messages returns the channel messages still present.
func (c *Client) Messages(channelID string) []platform.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.messages[channelID])
}

// AddMember registers a guild member.
func (c *Client) AddMember(guildID string, m platform.Member) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.members[guildID] == nil {
		c.members[guildID] = make(map[string]*platform.Member)
	}
	cp := m
	cp.RoleIDs = slices.Clone(m.RoleIDs)
	c.members[guildID][m.UserID] = &cp
}

// RemoveMember simulates a user leaving the guild.
func (c *Client) RemoveMember(guildID, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.members[guildID], userID)
}

// Member returns a copy of the member, if present.
func (c *Client) Member(guildID, userID string) (platform.Member, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.members[guildID][userID]
	if !ok {
		return platform.Member{}, false
	}
	cp := *m
	cp.RoleIDs = slices.Clone(m.RoleIDs)
	return cp, true
}

// SetRoles replaces the guild roles.
func (c *Client) SetRoles(guildID string, roles ...platform.Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roles[guildID] = roles
}

// Calls returns the recorded calls with the given op, all calls when op is empty.
func (c *Client) Calls(op string) []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Call
	for _, call := range c.calls {
		if op == "" || call.Op == op {
			out = append(out, call)
		}
	}
	return out
}

func (c *Client) begin(op string, call Call) error {
	c.mu.Lock()
	hook := c.Hooks[op]
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	call.Op = op
	c.calls = append(c.calls, call)
	return c.Errors[op]
}

// RecentMessages implements platform.Client.
func (c *Client) RecentMessages(_ context.Context, channelID string, limit int) ([]platform.Message, error) {
	if err := c.begin("fetch messages", Call{}); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := c.messages[channelID]
	if limit < len(msgs) {
		msgs = msgs[:limit]
	}
	return slices.Clone(msgs), nil
}

// DeleteMessages implements platform.Client. Unknown IDs are ignored.
func (c *Client) DeleteMessages(_ context.Context, channelID string, ids []string) error {
	if len(ids) > platform.BulkDeleteLimit {
		return fmt.Errorf("bulk delete of %d messages exceeds the limit", len(ids))
	}
	if err := c.begin("bulk delete", Call{Target: slices.Clone(ids)}); err != nil {
		return err
	}
	c.remove(channelID, ids)
	return nil
}

// DeleteMessage implements platform.Client.
func (c *Client) DeleteMessage(_ context.Context, channelID, id string) error {
	if err := c.begin("delete message", Call{Target: []string{id}}); err != nil {
		return err
	}
	c.mu.Lock()
	found := slices.ContainsFunc(c.messages[channelID], func(m platform.Message) bool { return m.ID == id })
	c.mu.Unlock()
	if !found {
		return platform.ErrMessageNotFound
	}
	c.remove(channelID, []string{id})
	return nil
}

func (c *Client) remove(channelID string, ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages[channelID] = slices.DeleteFunc(c.messages[channelID], func(m platform.Message) bool {
		return slices.Contains(ids, m.ID)
	})
}

// AddRole implements platform.Client.
func (c *Client) AddRole(_ context.Context, guildID, userID, roleID string) error {
	if err := c.begin("add role", Call{Guild: guildID, User: userID, Role: roleID}); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.members[guildID][userID]
	if !ok {
		return platform.ErrMemberNotFound
	}
	if !m.HasRole(roleID) {
		m.RoleIDs = append(m.RoleIDs, roleID)
	}
	return nil
}

// RemoveRole implements platform.Client.
func (c *Client) RemoveRole(_ context.Context, guildID, userID, roleID string) error {
	if err := c.begin("remove role", Call{Guild: guildID, User: userID, Role: roleID}); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.members[guildID][userID]
	if !ok {
		return platform.ErrMemberNotFound
	}
	m.RoleIDs = slices.DeleteFunc(m.RoleIDs, func(id string) bool { return id == roleID })
	return nil
}

// MuteUser implements platform.Client.
func (c *Client) MuteUser(_ context.Context, guildID, userID string, until time.Time) error {
	return c.begin("mute", Call{Guild: guildID, User: userID, Until: until})
}

// Ban implements platform.Client.
func (c *Client) Ban(_ context.Context, guildID, userID, _ string, _ int) error {
	return c.begin("ban", Call{Guild: guildID, User: userID})
}

// Kick implements platform.Client.
func (c *Client) Kick(_ context.Context, guildID, userID, _ string) error {
	return c.begin("kick", Call{Guild: guildID, User: userID})
}

// FetchMembers implements platform.Client.
func (c *Client) FetchMembers(_ context.Context, guildID string, userIDs []string) ([]platform.Member, error) {
	if err := c.begin("fetch members", Call{Guild: guildID, Target: slices.Clone(userIDs)}); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []platform.Member
	for _, id := range userIDs {
		if m, ok := c.members[guildID][id]; ok {
			cp := *m
			cp.RoleIDs = slices.Clone(m.RoleIDs)
			out = append(out, cp)
		}
	}
	return out, nil
}

// GuildRoles implements platform.Client.
func (c *Client) GuildRoles(_ context.Context, guildID string) ([]platform.Role, error) {
	if err := c.begin("fetch roles", Call{Guild: guildID}); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.roles[guildID]), nil
}

var _ platform.Client = (*Client)(nil)
