// Command seed-roles writes the role catalog and its permission grants to
// the database. Role names and descriptions come from the embedded
// roles.yaml; the permission set per role comes from the authorization
// policy, so code stays the single source of truth for grants. Safe to
// run repeatedly: roles are upserted and permissions replaced wholesale.
package main

import (
	"context"
	_ "embed"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"bridge_backend/internal/authz"
	"bridge_backend/platform/config"
	"bridge_backend/platform/db"
	"bridge_backend/platform/logger"
)

//go:embed roles.yaml
var rolesYAML []byte

type roleSeed struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type seedFile struct {
	Roles []roleSeed `yaml:"roles"`
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var seeds seedFile
	if err := yaml.Unmarshal(rolesYAML, &seeds); err != nil {
		log.Error("invalid roles.yaml", "error", err)
		os.Exit(1)
	}
	if len(seeds.Roles) == 0 {
		log.Error("roles.yaml defines no roles")
		os.Exit(1)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	grants := authz.DefaultGrants()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Error("failed to begin transaction", "error", err)
		os.Exit(1)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, role := range seeds.Roles {
		permissions, known := grants[role.Name]
		if !known {
			log.Error("role has no grant entry in the policy", "role", role.Name)
			os.Exit(1)
		}

		var roleID uuid.UUID
		err := tx.QueryRow(ctx, `
			INSERT INTO roles (name, description)
			VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
			RETURNING id`,
			role.Name, role.Description,
		).Scan(&roleID)
		if err != nil {
			log.Error("failed to upsert role", "error", err, "role", role.Name)
			os.Exit(1)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			log.Error("failed to clear role permissions", "error", err, "role", role.Name)
			os.Exit(1)
		}
		for _, permission := range permissions {
			if _, err := tx.Exec(ctx, `
				INSERT INTO role_permissions (role_id, permission)
				VALUES ($1, $2)`,
				roleID, permission,
			); err != nil {
				log.Error("failed to grant permission", "error", err, "role", role.Name, "permission", permission)
				os.Exit(1)
			}
		}

		log.Info("role seeded", "role", role.Name, "permissions", len(permissions))
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error("failed to commit role seed", "error", err)
		os.Exit(1)
	}
	log.Info("role seeding complete", "roles", len(seeds.Roles))
}
