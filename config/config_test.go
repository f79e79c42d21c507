package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.OpenVPNDir == "" {
		t.Error("default OpenVPNDir should not be empty")
	}
	if cfg.CredentialsDir == "" {
		t.Error("default CredentialsDir should not be empty")
	}
	if !cfg.ShowNotifications {
		t.Error("notifications should be enabled by default")
	}
	if !cfg.RecordHistory {
		t.Error("history recording should be enabled by default")
	}
}

func TestPath_EnvOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv(EnvConfigPath, override)

	path, err := Path()
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	if path != override {
		t.Errorf("Path() = %q, want %q", path, override)
	}
}

func TestLoad_CreatesDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Errorf("Load() should create the config file on first run: %v", err)
	}
	if cfg.OpenVPNDir == "" {
		t.Error("loaded config should have a non-empty OpenVPNDir")
	}
	if strings.Contains(cfg.OpenVPNDir, "$HOME") {
		t.Error("loaded config should have environment variables expanded")
	}
}

func TestLoad_SaveRoundtrip(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, configPath)

	original := &Config{
		OpenVPNDir:        "/srv/vpn/configs",
		CredentialsDir:    "/srv/vpn/.credentials",
		ShowNotifications: false,
		RecordHistory:     true,
	}
	if err := original.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %04o, want 0600", info.Mode().Perm())
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.OpenVPNDir != original.OpenVPNDir {
		t.Errorf("OpenVPNDir = %q, want %q", loaded.OpenVPNDir, original.OpenVPNDir)
	}
	if loaded.CredentialsDir != original.CredentialsDir {
		t.Errorf("CredentialsDir = %q, want %q", loaded.CredentialsDir, original.CredentialsDir)
	}
	if loaded.ShowNotifications != original.ShowNotifications {
		t.Errorf("ShowNotifications = %v, want %v", loaded.ShowNotifications, original.ShowNotifications)
	}
	if loaded.RecordHistory != original.RecordHistory {
		t.Errorf("RecordHistory = %v, want %v", loaded.RecordHistory, original.RecordHistory)
	}
}

func TestLoad_ExpandsEnvironment(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, configPath)
	t.Setenv("VPN_BASE", "/opt/vpn")

	content := "openvpn_dir: $VPN_BASE/configs\ncredentials_dir: $VPN_BASE/.credentials\n"
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenVPNDir != "/opt/vpn/configs" {
		t.Errorf("OpenVPNDir = %q, want expanded path", cfg.OpenVPNDir)
	}
	if cfg.CredentialsDir != "/opt/vpn/.credentials" {
		t.Errorf("CredentialsDir = %q, want expanded path", cfg.CredentialsDir)
	}
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, configPath)

	content := "openvpn_dir: /tmp\nno_such_setting: true\n"
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load() should reject configs with unknown fields")
	}
}

func TestLoad_FillsMissingPaths(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, configPath)

	content := "show_notifications: false\n"
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OpenVPNDir == "" {
		t.Error("missing openvpn_dir should fall back to the default")
	}
	if cfg.ShowNotifications {
		t.Error("explicit show_notifications: false should be preserved")
	}
}
