package events

import (
	"fmt"

	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	"github.com/bwmarrin/discordgo"
)

// onThreadUpdate audits renames, archiving and locking of threads.
func (l *listeners) onThreadUpdate(_ *discordgo.Session, t *discordgo.ThreadUpdate) {
	if t.Channel == nil {
		return
	}

	fields := threadChanges(t.BeforeUpdate, t.Channel)
	if t.BeforeUpdate != nil && len(fields) == 0 {
		return
	}

	l.audit(t.GuildID, auditlog.Event{
		Name:        auditlog.EventThreadUpdate,
		Title:       "🧵 Hilo actualizado",
		Description: fmt.Sprintf("<#%s> en <#%s>", t.ID, t.ParentID),
		Color:       0x9b59b6,
		Fields:      fields,
	})
}

// threadChanges lists what differs between two versions of a thread.
// Without the previous version nothing can be compared.
func threadChanges(before, after *discordgo.Channel) []*discordgo.MessageEmbedField {
	if before == nil {
		return nil
	}

	var fields []*discordgo.MessageEmbedField
	if before.Name != after.Name {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Nombre", Value: fmt.Sprintf("%s → %s", before.Name, after.Name)})
	}
	if b, a := metadata(before), metadata(after); b.Archived != a.Archived || b.Locked != a.Locked {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  "Estado",
			Value: fmt.Sprintf("%s → %s", threadState(b), threadState(a)),
		})
	}
	return fields
}

func metadata(c *discordgo.Channel) discordgo.ThreadMetadata {
	if c.ThreadMetadata == nil {
		return discordgo.ThreadMetadata{}
	}
	return *c.ThreadMetadata
}

func threadState(m discordgo.ThreadMetadata) string {
	switch {
	case m.Locked:
		return "🔒 bloqueado"
	case m.Archived:
		return "📦 archivado"
	default:
		return "💬 abierto"
	}
}
