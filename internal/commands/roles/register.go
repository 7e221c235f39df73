// Package roles provides the /temprole command group and the components of
// the role-request workflow: approval, denial, notes and manual removal.
package roles

import (
	"context"

	"github.com/PancyStudios/PancyModGo/internal/temprole"
	"github.com/PancyStudios/PancyModGo/pkg/auditlog"
	"github.com/PancyStudios/PancyModGo/pkg/discord"
	"github.com/PancyStudios/PancyModGo/pkg/models"
)

// Grants is the scheduler surface the handlers drive. *temprole.Scheduler implements it.
type Grants interface {
	Activate(ctx context.Context, req temprole.GrantRequest) (*models.TemporaryRole, error)
	Revoke(ctx context.Context, requestMessageID, actorID string) (*models.TemporaryRole, error)
	Active(ctx context.Context) ([]*models.TemporaryRole, error)
}

// Register adds the /temprole group and the request workflow components.
func Register(reg *discord.Registry, grants Grants, audit auditlog.Sink) error {
	if audit == nil {
		audit = auditlog.Nop{}
	}

	err := reg.RegisterGroup(
		"temprole",
		"Roles temporales",
		createRequestCommand(audit),
		createListCommand(grants),
		createRevokeCommand(grants),
	)
	if err != nil {
		return err
	}

	for _, h := range []*discord.Handler{
		createApproveButton(grants),
		createDenyButton(),
		createNoteModal(),
		createNoteButton(),
		createRemoveButton(grants),
	} {
		if err := reg.Register(h); err != nil {
			return err
		}
	}
	return nil
}
