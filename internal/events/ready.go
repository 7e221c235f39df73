package events

import (
	"context"
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

// onReady is called once, when the bot first connects to Discord
func (l *listeners) onReady(s *discordgo.Session, r *discordgo.Ready) {
	logger.Success(fmt.Sprintf("✅ Bot conectado: %s", r.User.Username), "Ready")
	logger.Info(fmt.Sprintf("📊 Conectado a %d servidores", len(r.Guilds)), "Ready")

	l.ready(r)

	if s == nil {
		return
	}
	if err := s.UpdateGameStatus(0, l.Status); err != nil {
		logger.Error(fmt.Sprintf("Error estableciendo estado: %v", err), "Ready")
		return
	}
	logger.Debug("Estado del bot establecido correctamente", "Ready")
}

// ready publishes the bot identity, then expires grants that came due while
// offline. Recovery retries in the background until the store answers.
func (l *listeners) ready(r *discordgo.Ready) {
	if l.Identity != nil && r.User != nil {
		l.Identity.SetServiceID(r.User.ID)
	}
	if l.Scheduler == nil {
		return
	}

	go func() {
		if err := l.Scheduler.StartWithRetry(context.Background(), l.RecoverTimeout); err != nil {
			logger.Error(fmt.Sprintf("Error recuperando roles temporales: %v", err), "Ready")
			return
		}
		logger.Success("⏳ Roles temporales recuperados", "Ready")
	}()
}
