// Package moderation implements the punitive actions of the bot: the role
// hierarchy guard, message purges, timeouts, bans, kicks and bulk role changes.
package moderation

import (
	"context"
	"fmt"
	"sort"

	boterrors "github.com/PancyStudios/PancyModGo/pkg/errors"
	"github.com/PancyStudios/PancyModGo/pkg/platform"
)

// DenyReason explains why a moderation action is not allowed. DenyNone allows it.
type DenyReason string

const (
	DenyNone      DenyReason = ""
	DenySelf      DenyReason = "self"
	DenyService   DenyReason = "service"
	DenyHierarchy DenyReason = "hierarchy"
)

// Message returns the user-facing explanation.
func (r DenyReason) Message() string {
	switch r {
	case DenySelf:
		return "No puedes moderarte a ti mismo."
	case DenyService:
		return "No puedo moderarme a mí mismo."
	case DenyHierarchy:
		return "No puedes moderar a alguien con un rol igual o superior al tuyo."
	default:
		return ""
	}
}

// Err converts a denial into a boterrors.DeniedError, nil when allowed.
func (r DenyReason) Err() error {
	if r == DenyNone {
		return nil
	}
	return boterrors.Denied(r.Message())
}

// Executor is the member performing an action.
type Executor struct {
	ID    string
	Ranks []int
}

// Target is the member an action is aimed at. Ranks are sorted highest first.
// IsBot marks the bot's own account.
type Target struct {
	ID     string
	Ranks  []int
	IsSelf bool
	IsBot  bool
}

// GuardConfig carries the identity of the bot itself.
type GuardConfig struct {
	ServiceID string
}

// CheckModerationAllowed decides whether executor may act on target.
// Equal rank denies.
func CheckModerationAllowed(executor Executor, target Target, cfg GuardConfig) DenyReason {
	if target.IsSelf || target.ID == executor.ID {
		return DenySelf
	}
	if target.IsBot || (cfg.ServiceID != "" && target.ID == cfg.ServiceID) {
		return DenyService
	}
	if HighestRank(target.Ranks) >= HighestRank(executor.Ranks) {
		return DenyHierarchy
	}
	return DenyNone
}

// HighestRank returns the top rank, 0 (the @everyone position) when there are none.
func HighestRank(ranks []int) int {
	highest := 0
	for _, r := range ranks {
		if r > highest {
			highest = r
		}
	}
	return highest
}

// RankIndex maps role IDs to their hierarchy position.
type RankIndex map[string]int

// NewRankIndex indexes the guild roles.
func NewRankIndex(roles []platform.Role) RankIndex {
	idx := make(RankIndex, len(roles))
	for _, r := range roles {
		idx[r.ID] = r.Position
	}
	return idx
}

// Ranks resolves a member's roles to positions, highest first. Unknown roles are skipped.
func (idx RankIndex) Ranks(roleIDs []string) []int {
	ranks := make([]int, 0, len(roleIDs))
	for _, id := range roleIDs {
		if pos, ok := idx[id]; ok {
			ranks = append(ranks, pos)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ranks)))
	return ranks
}

// BuildTarget derives a Target from platform data for one invocation.
func BuildTarget(member platform.Member, idx RankIndex, executorID, serviceID string) Target {
	return Target{
		ID:     member.UserID,
		Ranks:  idx.Ranks(member.RoleIDs),
		IsSelf: member.UserID == executorID,
		IsBot:  serviceID != "" && member.UserID == serviceID,
	}
}

// CheckTarget fetches the executor, the target and the guild roles and runs
// the guard with fresh data. A target that is not in the guild is judged with no roles.
func (e *Engine) CheckTarget(ctx context.Context, guildID, executorID, targetID string) (DenyReason, error) {
	serviceID := e.service()
	if targetID == executorID {
		return DenySelf, nil
	}
	if serviceID != "" && targetID == serviceID {
		return DenyService, nil
	}

	roles, err := e.platform.GuildRoles(ctx, guildID)
	if err != nil {
		return DenyNone, err
	}
	members, err := e.platform.FetchMembers(ctx, guildID, []string{executorID, targetID})
	if err != nil {
		return DenyNone, err
	}

	idx := NewRankIndex(roles)
	var (
		executor = Executor{ID: executorID}
		target   = Target{ID: targetID}
		found    bool
	)
	for _, m := range members {
		switch m.UserID {
		case executorID:
			executor.Ranks = idx.Ranks(m.RoleIDs)
			found = true
		case targetID:
			target = BuildTarget(m, idx, executorID, serviceID)
		}
	}
	if !found {
		return DenyNone, boterrors.Transport("fetch executor", fmt.Errorf("executor %s: %w", executorID, platform.ErrMemberNotFound))
	}

	return CheckModerationAllowed(executor, target, GuardConfig{ServiceID: serviceID}), nil
}
