package events

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/bwmarrin/discordgo"
)

func (l *listeners) onDisconnect(s *discordgo.Session, _ *discordgo.Disconnect) {
	logger.Warn(fmt.Sprintf("🔌 Shard %d desconectado.", shardID(s)), "Shard")
}

func (l *listeners) onResumed(s *discordgo.Session, _ *discordgo.Resumed) {
	logger.Success(fmt.Sprintf("✅ Shard %d reanudado.", shardID(s)), "Shard")
}

func shardID(s *discordgo.Session) int {
	if s == nil {
		return 0
	}
	return s.ShardID
}
