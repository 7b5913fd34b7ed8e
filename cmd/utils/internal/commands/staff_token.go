package commands

import (
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/internal/auth"
	"github.com/appetiteclub/tableside/internal/config"
	"github.com/appetiteclub/tableside/internal/seeding"
	"github.com/appetiteclub/tableside/pkg/enums/staffrole"
)

const staffTokenTTL = 12 * time.Hour

var demoStaff = map[string]uuid.UUID{
	staffrole.Roles.Waiter.Code():  seeding.DemoWaiterID,
	staffrole.Roles.Kitchen.Code(): seeding.DemoKitchenID,
	staffrole.Roles.Manager.Code(): seeding.DemoManagerID,
}

// StaffToken prints a bearer token for a demo staff member with the given role.
func StaffToken(aptConfig *apt.Config, logger apt.Logger, roleName string) (string, error) {
	cfg, err := config.Load(aptConfig)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if !cfg.IsDev() {
		return "", fmt.Errorf("staff tokens can only be minted in dev")
	}
	if cfg.JWTSecret == "" {
		return "", fmt.Errorf("auth.jwt.secret is required to mint tokens")
	}

	role := staffrole.ByName(roleName)
	if role == nil {
		return "", fmt.Errorf("unknown role %q", roleName)
	}

	authn := auth.NewAuthenticator(cfg.JWTSecret, logger)
	token, err := authn.Issue(seeding.DemoRestaurantID, demoStaff[role.Code()], *role, staffTokenTTL)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
