package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/technosupport/vms-inventory/internal/auth"
	"github.com/technosupport/vms-inventory/internal/config"
	"github.com/technosupport/vms-inventory/internal/data"
	"github.com/technosupport/vms-inventory/internal/logging"
)

// seed-admin creates the Admin role and an enabled admin account so the
// protected routes can be reached on a fresh database. Re-running it resets
// the admin password.
func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	username := flag.String("username", "admin", "admin username")
	flag.Parse()

	password := os.Getenv("ADMIN_PASSWORD")

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("seed-admin: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log.Level, "console")
	if err != nil {
		os.Stderr.WriteString("seed-admin: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if len(password) < 8 {
		logger.Fatal("ADMIN_PASSWORD must be set to at least 8 characters")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 1. Role
	roles := data.RoleModel{DB: db}
	role, err := roles.GetByName(ctx, "Admin")
	if errors.Is(err, data.ErrRecordNotFound) {
		role = &data.Role{Name: "Admin", Status: true}
		err = roles.Create(ctx, role)
	}
	if err != nil {
		logger.Fatal("admin role", zap.Error(err))
	}

	// 2. User
	hash, err := auth.NewHasher(auth.DefaultParams).Hash(password)
	if err != nil {
		logger.Fatal("hash password", zap.Error(err))
	}

	users := data.UserModel{DB: db}
	u, err := users.GetByUsername(ctx, *username)
	switch {
	case errors.Is(err, data.ErrRecordNotFound):
		u = &data.User{Username: *username, PasswordHash: hash, RoleID: role.ID, Status: true}
		if err := users.Create(ctx, u); err != nil {
			logger.Fatal("create admin user", zap.Error(err))
		}
		logger.Info("admin user created", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	case err != nil:
		logger.Fatal("lookup admin user", zap.Error(err))
	default:
		u.PasswordHash = hash
		u.RoleID = role.ID
		u.Status = true
		if err := users.Update(ctx, u); err != nil {
			logger.Fatal("update admin user", zap.Error(err))
		}
		logger.Info("admin user reset", zap.Int64("user_id", u.ID), zap.String("username", u.Username))
	}
}
