package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestUnmarshalDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Unmarshal(v)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Server.Port != "5000" {
		t.Fatalf("Server.Port = %q, want 5000", cfg.Server.Port)
	}
	if cfg.Kling.PollInterval != 8*time.Second {
		t.Fatalf("Kling.PollInterval = %v, want 8s", cfg.Kling.PollInterval)
	}
	if cfg.Kling.WaitTimeout != 0 {
		t.Fatalf("Kling.WaitTimeout = %v, want 0", cfg.Kling.WaitTimeout)
	}
	if cfg.Kling.APIKey != "" {
		t.Fatalf("Kling.APIKey = %q, want empty", cfg.Kling.APIKey)
	}
	if cfg.History.CleanupSpec != "@daily" {
		t.Fatalf("History.CleanupSpec = %q, want @daily", cfg.History.CleanupSpec)
	}
}

func TestUnmarshalReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(strings.Join([]string{
		"server:",
		"  port: \"8080\"",
		"kling:",
		"  model: kling-v1-6",
		"  poll_interval: 3s",
		"  wait_timeout: 10m",
	}, "\n")), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("KLING_API_KEY", "  from-env  ")

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	cfg, err := Unmarshal(v)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Kling.APIKey != "from-env" {
		t.Fatalf("Kling.APIKey = %q, want from-env", cfg.Kling.APIKey)
	}
	if cfg.Kling.Model != "kling-v1-6" {
		t.Fatalf("Kling.Model = %q", cfg.Kling.Model)
	}
	if cfg.Kling.PollInterval != 3*time.Second || cfg.Kling.WaitTimeout != 10*time.Minute {
		t.Fatalf("durations = %v / %v", cfg.Kling.PollInterval, cfg.Kling.WaitTimeout)
	}
}

func TestUnmarshalRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
		want string
	}{
		{name: "empty port", key: "server.port", val: "", want: "端口"},
		{name: "zero poll interval", key: "kling.poll_interval", val: "0s", want: "轮询间隔"},
		{name: "negative timeout", key: "kling.wait_timeout", val: "-1s", want: "等待超时"},
		{name: "zero retention", key: "history.retention_days", val: 0, want: "保留天数"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.val)

			_, err := Unmarshal(v)
			if err == nil {
				t.Fatal("Unmarshal() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Unmarshal() error = %q, want mention of %q", err, tt.want)
			}
		})
	}
}
