// Package main is the entry point for the PancyMod Go application.
// It initializes all systems and starts the Discord bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/PancyModGo/internal/commands"
	"github.com/PancyStudios/PancyModGo/internal/commands/dev"
	"github.com/PancyStudios/PancyModGo/internal/commands/utils"
	"github.com/PancyStudios/PancyModGo/internal/events"
	"github.com/PancyStudios/PancyModGo/internal/moderation"
	"github.com/PancyStudios/PancyModGo/internal/temprole"
	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	"github.com/PancyStudios/PancyModGo/pkg/config"
	"github.com/PancyStudios/PancyModGo/pkg/database"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/PancyStudios/PancyModGo/pkg/models"
	"github.com/PancyStudios/PancyModGo/pkg/mqtt"
	"github.com/PancyStudios/PancyModGo/pkg/platform"
	"github.com/PancyStudios/PancyModGo/pkg/sysinfo"
	"github.com/PancyStudios/PancyModGo/pkg/web"
	"github.com/samber/lo"
)

const shutdownTimeout = 10 * time.Second

// storage is the persistence backend selected by STORAGE_DRIVER.
type storage interface {
	temprole.Store
	moderation.InfractionStore
	Ping(ctx context.Context) (time.Duration, error)
	Close(ctx context.Context) error
}

type mongoStorage struct {
	*database.TempRoleStore
	*database.InfractionStore
	db *database.Database
}

func (m mongoStorage) Ping(ctx context.Context) (time.Duration, error) { return m.db.Ping(ctx) }
func (m mongoStorage) Close(ctx context.Context) error                 { return m.db.Disconnect(ctx) }

type sqliteStorage struct {
	*database.SQLiteStore
}

func (s sqliteStorage) Close(context.Context) error { return s.SQLiteStore.Close() }

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.LogsDir)
	defer log.Close()

	logger.System("Iniciando PancyMod Go...", "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	crash := errors.Init()

	guilds, err := config.LoadGuilds(cfg.GuildConfigPath)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error leyendo la configuración de servidores: %v", err), "Main")
		os.Exit(1)
	}
	logger.Info(fmt.Sprintf("Servidores configurados: %d", guilds.Len()), "Main")

	store, err := openStorage(cfg)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error conectando al almacenamiento: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			logger.Warn(fmt.Sprintf("Error cerrando el almacenamiento: %v", err), "Main")
		}
	}()

	// Initialize MQTT
	mqttClientID := "pancymod"
	if !cfg.IsProd() {
		mqttClientID = "pancymod_canary"
	}
	comm := mqtt.NewCommunicator(mqtt.Options{
		Host:     cfg.MQTTHost,
		Port:     cfg.MQTTPort,
		Username: cfg.MQTTUser,
		Password: cfg.MQTTPassword,
		ClientID: mqttClientID,
	})
	defer comm.Destroy()

	// Initialize Discord client
	client, err := discord.NewClient(cfg.BotToken, discord.ClientOptions{
		Guilds:            guilds,
		CooldownCacheSize: cfg.CooldownCacheSize,
		DevGuildID:        cfg.DevGuildID,
		SyncOnReady:       true,
	})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	sink := auditlog.NewChannelSink(client.Session, guilds, comm)
	engine := moderation.NewEngine(platform.NewDiscord(client.Session), store, sink, moderation.Options{
		SingleDeleteRPS: cfg.PurgeSingleDeleteRPS,
	})
	scheduler := temprole.NewScheduler(store, engine, sink, temprole.Options{})
	defer scheduler.Stop()

	if err := comm.On("temproles/active", activeGrantsHandler(scheduler)); err != nil {
		logger.Warn(fmt.Sprintf("No se pudo suscribir a solicitudes MQTT: %v", err), "Main")
	}

	// Register commands and events
	if err := commands.RegisterAll(client.Registry, commands.Deps{
		Moderator: engine,
		Grants:    scheduler,
		Audit:     sink,
		Utils: utils.Deps{
			Bot:     client,
			Storage: store,
			Stats:   sysinfo.Collect,
		},
		Dev: dev.Deps{
			Timers: scheduler,
			Panics: crash.PanicCount,
		},
	}); err != nil {
		logger.Critical(fmt.Sprintf("Error registrando comandos: %v", err), "Main")
		os.Exit(1)
	}

	// Initialize web server
	webServer, err := web.NewServer(web.ServerOptions{
		WebhookURL:   cfg.WebLogWebhook,
		AllowedHosts: cfg.WebAllowedHosts,
	})
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creando el servidor web: %v", err), "Main")
		os.Exit(1)
	}
	web.SetupAPIRoutes(webServer, &web.API{Bot: client, Storage: store, Grants: scheduler})
	webServer.StartAsync(cfg.Port)

	// Start the bot
	listeners := events.Listeners(events.Deps{
		Audit:     sink,
		Scheduler: scheduler,
		Identity:  engine,
	})
	if err := client.Start(listeners...); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func() {
		if err := client.Stop(); err != nil {
			logger.Warn(fmt.Sprintf("Error cerrando la sesión de Discord: %v", err), "Main")
		}
	}()

	logger.Success("PancyMod Go iniciado correctamente!", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando PancyMod Go...", "Main")
}

func openStorage(cfg *config.Config) (storage, error) {
	if cfg.UsesSQLite() {
		logger.Info(fmt.Sprintf("Usando SQLite en %s", cfg.SQLitePath), "Main")
		s, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return sqliteStorage{s}, nil
	}

	db := database.NewDatabase()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Connect(ctx, cfg.MongoDBURL, cfg.DBName); err != nil {
		// Connect keeps retrying in the background.
		logger.Error(fmt.Sprintf("Error connecting to database: %v", err), "Main")
	}
	return mongoStorage{
		TempRoleStore:   database.NewTempRoleStore(db),
		InfractionStore: database.NewInfractionStore(db),
		db:              db,
	}, nil
}

// activeGrantsHandler answers dashboard requests for the active grants of a guild.
func activeGrantsHandler(scheduler *temprole.Scheduler) mqtt.RequestHandler {
	return func(payload map[string]interface{}) (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		grants, err := scheduler.Active(ctx)
		if err != nil {
			return nil, err
		}
		if guildID, _ := payload["guildId"].(string); guildID != "" {
			grants = lo.Filter(grants, func(g *models.TemporaryRole, _ int) bool { return g.GuildID == guildID })
		}
		return grants, nil
	}
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}
