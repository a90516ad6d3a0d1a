package database

import (
	"path/filepath"
	"testing"

	"kling-studio/app/config"
	"kling-studio/app/logger"
	"kling-studio/app/model"
	"kling-studio/app/utils"
)

func TestInitAdminUserCreatesAndUpdates(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}

	cfg := &config.Config{Server: config.ServerConfig{Username: "admin", Password: "first-pass"}}
	log := logger.NewNop()

	if err := InitAdminUser(db, cfg, log); err != nil {
		t.Fatalf("InitAdminUser() error = %v", err)
	}

	var admin model.User
	if err := db.Where("is_admin = ?", true).First(&admin).Error; err != nil {
		t.Fatalf("load admin: %v", err)
	}
	if admin.Username != "admin" || !utils.VerifyPassword("first-pass", admin.Password) {
		t.Fatalf("admin = %+v, password not hashed from config", admin)
	}

	cfg.Server.Username = "operator"
	cfg.Server.Password = "second-pass"
	if err := InitAdminUser(db, cfg, log); err != nil {
		t.Fatalf("InitAdminUser() second run error = %v", err)
	}

	var count int64
	db.Model(&model.User{}).Count(&count)
	if count != 1 {
		t.Fatalf("user count = %d, want 1", count)
	}
	if err := db.First(&admin, admin.ID).Error; err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if admin.Username != "operator" || !utils.VerifyPassword("second-pass", admin.Password) {
		t.Fatalf("admin not updated: %+v", admin)
	}
}

func TestInitAdminUserRequiresPassword(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate() error = %v", err)
	}

	cfg := &config.Config{Server: config.ServerConfig{Username: "admin"}}
	if err := InitAdminUser(db, cfg, logger.NewNop()); err == nil {
		t.Fatal("InitAdminUser() error = nil, want error for empty password")
	}
}
