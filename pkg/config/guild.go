package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/goccy/go-json"
)

// DefaultLogChannel is the logging-channel key used when an event has no channel of its own.
const DefaultLogChannel = "default"

// Choice is a preconfigured option offered by a custom command.
type Choice struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// GuildConfig holds the per-guild settings. It is loaded once and never mutated afterwards.
type GuildConfig struct {
	GuildID              string            `json:"guildId"`
	ModerationEmojis     map[string]string `json:"moderationEmojis"`
	LoggingChannels      map[string]string `json:"loggingChannels"`
	CustomCommandChoices []Choice          `json:"customCommandChoices"`
	PublicChannels       []string          `json:"publicChannels"`
}

// Emoji returns the configured moderation emoji for name, or fallback.
func (g *GuildConfig) Emoji(name, fallback string) string {
	if g == nil {
		return fallback
	}
	if e, ok := g.ModerationEmojis[name]; ok && e != "" {
		return e
	}
	return fallback
}

// LogChannel resolves the channel for an audit event, falling back to the default entry.
func (g *GuildConfig) LogChannel(event string) (string, bool) {
	if g == nil {
		return "", false
	}
	if id, ok := g.LoggingChannels[event]; ok && id != "" {
		return id, true
	}
	id, ok := g.LoggingChannels[DefaultLogChannel]
	return id, ok && id != ""
}

// IsPublicChannel reports whether replies in channelID are public by default.
func (g *GuildConfig) IsPublicChannel(channelID string) bool {
	if g == nil {
		return false
	}
	return slices.Contains(g.PublicChannels, channelID)
}

// GuildProvider gives read-only access to guild configuration.
type GuildProvider interface {
	Guild(guildID string) *GuildConfig
}

// GuildStore is an in-memory GuildProvider.
type GuildStore struct {
	guilds   map[string]*GuildConfig
	fallback *GuildConfig
}

// NewGuildStore builds a store from already decoded configs.
func NewGuildStore(guilds ...*GuildConfig) *GuildStore {
	s := &GuildStore{
		guilds:   make(map[string]*GuildConfig, len(guilds)),
		fallback: &GuildConfig{},
	}
	for _, g := range guilds {
		if g != nil && g.GuildID != "" {
			s.guilds[g.GuildID] = g
		}
	}
	return s
}

// LoadGuilds reads a JSON array of guild configs. A missing file yields an empty store.
func LoadGuilds(path string) (*GuildStore, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewGuildStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read guild config: %w", err)
	}

	var guilds []*GuildConfig
	if err := json.Unmarshal(data, &guilds); err != nil {
		return nil, fmt.Errorf("decode guild config %s: %w", path, err)
	}
	return NewGuildStore(guilds...), nil
}

// Guild returns the config for guildID, or an empty config.
func (s *GuildStore) Guild(guildID string) *GuildConfig {
	if g, ok := s.guilds[guildID]; ok {
		return g
	}
	return s.fallback
}

// Len returns the number of configured guilds.
func (s *GuildStore) Len() int {
	return len(s.guilds)
}
