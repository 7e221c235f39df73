package moderation

import (
	"context"
	"errors"

	boterrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/platform"
	"github.com/samber/lo"
)

// RoleChangeResult lists the users whose role changed and the ones skipped
// because they are no longer in the guild.
type RoleChangeResult struct {
	Changed []string
	Skipped []string
}

// GrantRole adds roleID to every user still in the guild.
func (e *Engine) GrantRole(ctx context.Context, guildID, roleID string, userIDs []string) (RoleChangeResult, error) {
	return e.changeRole(ctx, guildID, roleID, userIDs, true)
}

// RevokeRole removes roleID from every user still in the guild.
func (e *Engine) RevokeRole(ctx context.Context, guildID, roleID string, userIDs []string) (RoleChangeResult, error) {
	return e.changeRole(ctx, guildID, roleID, userIDs, false)
}

func (e *Engine) changeRole(ctx context.Context, guildID, roleID string, userIDs []string, add bool) (RoleChangeResult, error) {
	var res RoleChangeResult
	direction := "remove"
	if add {
		direction = "add"
	}

	ids := lo.Uniq(userIDs)
	if len(ids) == 0 {
		return res, nil
	}

	members, err := e.platform.FetchMembers(ctx, guildID, ids)
	if err != nil {
		return res, boterrors.Transport("fetch members", err)
	}
	present := lo.KeyBy(members, func(m platform.Member) string { return m.UserID })

	for _, id := range ids {
		m, ok := present[id]
		if !ok {
			res.Skipped = append(res.Skipped, id)
			roleChanges.WithLabelValues(direction, "skipped").Inc()
			continue
		}
		if m.HasRole(roleID) == add {
			res.Changed = append(res.Changed, id)
			continue
		}

		if add {
			err = e.platform.AddRole(ctx, guildID, id, roleID)
		} else {
			err = e.platform.RemoveRole(ctx, guildID, id, roleID)
		}
		switch {
		case err == nil:
			res.Changed = append(res.Changed, id)
			roleChanges.WithLabelValues(direction, "changed").Inc()
		case errors.Is(err, platform.ErrMemberNotFound):
			res.Skipped = append(res.Skipped, id)
			roleChanges.WithLabelValues(direction, "skipped").Inc()
		default:
			roleChanges.WithLabelValues(direction, "error").Inc()
			return res, boterrors.Transport(direction+" role", err)
		}
	}
	return res, nil
}
