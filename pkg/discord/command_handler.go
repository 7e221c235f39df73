package discord

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// CommandAPI is the application command REST surface of *discordgo.Session.
type CommandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

// CommandHandler syncs the registry's application commands with Discord.
type CommandHandler struct {
	api        CommandAPI
	registry   *Registry
	devGuildID string
}

// NewCommandHandler creates a new CommandHandler
func NewCommandHandler(api CommandAPI, registry *Registry, devGuildID string) *CommandHandler {
	return &CommandHandler{api: api, registry: registry, devGuildID: devGuildID}
}

// RegisterCommands overwrites the global commands, and the dev guild commands when configured.
func (ch *CommandHandler) RegisterCommands(appID string) error {
	global := ch.registry.ApplicationCommands()
	logger.Info(fmt.Sprintf("🔄 Registrando %d comandos globales...", len(global)), "CommandHandler")

	if _, err := ch.api.ApplicationCommandBulkOverwrite(appID, "", global); err != nil {
		logger.Error("Error registrando comandos globales: "+err.Error(), "CommandHandler")
		return err
	}
	logger.Success("✅ Comandos globales registrados.", "CommandHandler")

	dev := ch.registry.DevCommands()
	if ch.devGuildID == "" || len(dev) == 0 {
		return nil
	}

	logger.Info("🔄 Registrando comandos de desarrollo en el servidor "+ch.devGuildID+"...", "CommandHandler")
	if _, err := ch.api.ApplicationCommandBulkOverwrite(appID, ch.devGuildID, dev); err != nil {
		logger.Error("Error registrando comandos de desarrollo: "+err.Error(), "CommandHandler")
		return err
	}
	logger.Success("✅ Comandos de desarrollo registrados.", "CommandHandler")
	return nil
}

// ListCommands returns the commands Discord currently has for guildID ("" for global).
func (ch *CommandHandler) ListCommands(appID, guildID string) ([]*discordgo.ApplicationCommand, error) {
	return ch.api.ApplicationCommands(appID, guildID)
}

// UnregisterCommands removes every command registered for guildID ("" for global).
func (ch *CommandHandler) UnregisterCommands(appID, guildID string) (int, error) {
	commands, err := ch.api.ApplicationCommands(appID, guildID)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, cmd := range commands {
		if err := ch.api.ApplicationCommandDelete(appID, guildID, cmd.ID); err != nil {
			logger.Error("Error eliminando comando "+cmd.Name+": "+err.Error(), "CommandHandler")
			continue
		}
		removed++
	}

	logger.Success(fmt.Sprintf("%d comandos eliminados.", removed), "CommandHandler")
	return removed, nil
}
