// Package main provides a utility to sync Discord slash commands.
// This removes stale commands from Discord and ensures only currently-defined commands are registered.
//
// Usage:
//
//	go run ./cmd/sync-commands [options]
//
// Options:
//
//	-list           List all registered commands (global and guild)
//	-clean          Remove all commands without registering new ones
//	-guild <id>     Target a specific guild instead of global commands
//	-sync           Sync commands (overwrite with the current set) - default behavior
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

const prefix = "SyncCommands"

func main() {
	// Parse command line flags
	listCmd := flag.Bool("list", false, "List all registered commands")
	cleanCmd := flag.Bool("clean", false, "Remove all commands without registering new ones")
	guildID := flag.String("guild", "", "Target a specific guild (leave empty for global)")
	syncCmd := flag.Bool("sync", false, "Sync commands (overwrite with the current set)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.LogsDir)
	defer log.Close()

	logger.System("Iniciando utilidad de sincronización de comandos...", prefix)

	// Only the REST API is needed, so the gateway is never opened.
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord session: %v", err), prefix)
		os.Exit(1)
	}
	me, err := session.User("@me")
	if err != nil {
		logger.Critical(fmt.Sprintf("Error obteniendo la aplicación: %v", err), prefix)
		os.Exit(1)
	}
	logger.Success("Conectado a Discord como "+me.Username, prefix)

	// Register commands to know what we should have. Handlers never run here.
	registry := discord.NewRegistry()
	if err := commands.RegisterAll(registry, commands.Deps{}); err != nil {
		logger.Critical(fmt.Sprintf("Error registrando comandos: %v", err), prefix)
		os.Exit(1)
	}

	devGuild := cfg.DevGuildID
	if *guildID != "" {
		devGuild = *guildID
	}
	handler := discord.NewCommandHandler(session, registry, devGuild)

	// Execute the requested action
	switch {
	case *listCmd:
		err = listCommands(handler, me.ID, *guildID)
	case *cleanCmd:
		err = cleanCommands(handler, me.ID, *guildID)
	case *syncCmd:
		err = syncCommands(handler, me.ID)
	default:
		err = syncCommands(handler, me.ID)
	}
	if err != nil {
		logger.Error(err.Error(), prefix)
		os.Exit(1)
	}

	logger.Success("Operación completada exitosamente", prefix)
}

// listCommands lists all commands registered with Discord
func listCommands(h *discord.CommandHandler, appID, guildID string) error {
	logger.Info("📋 Listando comandos registrados...", prefix)
	if guildID != "" {
		logger.Info(fmt.Sprintf("Obteniendo comandos del servidor: %s", guildID), prefix)
	} else {
		logger.Info("Obteniendo comandos globales", prefix)
	}

	cmds, err := h.ListCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("error obteniendo comandos: %w", err)
	}
	if len(cmds) == 0 {
		logger.Info("No hay comandos registrados", prefix)
		return nil
	}

	logger.Info(fmt.Sprintf("Comandos encontrados: %d", len(cmds)), prefix)
	for i, cmd := range cmds {
		logger.Info(fmt.Sprintf("  %d. /%s - %s (ID: %s)", i+1, cmd.Name, cmd.Description, cmd.ID), prefix)
	}
	return nil
}

// cleanCommands removes all commands from Discord
func cleanCommands(h *discord.CommandHandler, appID, guildID string) error {
	logger.Info("🧹 Eliminando todos los comandos...", prefix)

	removed, err := h.UnregisterCommands(appID, guildID)
	if err != nil {
		return fmt.Errorf("error eliminando comandos: %w", err)
	}
	logger.Success(fmt.Sprintf("✅ %d comandos eliminados", removed), prefix)
	return nil
}

// syncCommands overwrites the global commands and the dev guild commands with the current set.
func syncCommands(h *discord.CommandHandler, appID string) error {
	logger.Info("🔄 Sincronizando comandos...", prefix)
	if err := h.RegisterCommands(appID); err != nil {
		return fmt.Errorf("error sincronizando comandos: %w", err)
	}
	logger.Success("✅ Comandos sincronizados correctamente", prefix)
	return nil
}
