package config

import (
	"sync"
	"testing"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	globalConfig = nil
	initOnce = sync.Once{}
	t.Cleanup(func() {
		globalConfig = nil
		initOnce = sync.Once{}
	})
}

func TestInitialize(t *testing.T) {
	resetGlobal(t)
	noDotEnv(t)

	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:9090"
`)

	if err := Initialize(path); err != nil {
		t.Fatalf("failed to initialize config: %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after initialization")
	}
	if cfg.Server.ListenAddress != "127.0.0.1:9090" {
		t.Errorf("expected listen address %q, got %q", "127.0.0.1:9090", cfg.Server.ListenAddress)
	}
}

func TestInitialize_MultipleCallsIgnored(t *testing.T) {
	resetGlobal(t)
	noDotEnv(t)

	first := writeConfig(t, "limiter:\n  limit: 7\n")
	second := writeConfig(t, "limiter:\n  limit: 9\n")

	if err := Initialize(first); err != nil {
		t.Fatalf("first Initialize() error = %v", err)
	}
	if err := Initialize(second); err != nil {
		t.Fatalf("second Initialize() error = %v", err)
	}

	if got := GetConfig().Limiter.Limit; got != 7 {
		t.Errorf("expected first config to win, got limit %d", got)
	}
}

func TestGetConfig_BeforeInitialize(t *testing.T) {
	resetGlobal(t)

	if GetConfig() != nil {
		t.Error("expected nil config before initialization")
	}
}

func TestSetConfig(t *testing.T) {
	resetGlobal(t)

	cfg := Default()
	SetConfig(cfg)

	if GetConfig() != cfg {
		t.Error("GetConfig did not return the config passed to SetConfig")
	}
}

func TestReloadConfig(t *testing.T) {
	resetGlobal(t)
	noDotEnv(t)

	path := writeConfig(t, "limiter:\n  limit: 12\n")
	SetConfig(Default())

	cfg, err := ReloadConfig(path)
	if err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}
	if cfg.Limiter.Limit != 12 || GetConfig().Limiter.Limit != 12 {
		t.Errorf("expected reloaded limit 12, got %d", GetConfig().Limiter.Limit)
	}
}

func TestReloadConfig_ValidationFailure(t *testing.T) {
	resetGlobal(t)
	noDotEnv(t)

	original := Default()
	SetConfig(original)

	path := writeConfig(t, "limiter:\n  backend: etcd\n")
	if _, err := ReloadConfig(path); err == nil {
		t.Fatal("expected reload error")
	}
	if GetConfig() != original {
		t.Error("failed reload replaced the configuration")
	}
}

func TestMustGetConfig(t *testing.T) {
	resetGlobal(t)

	defer func() {
		if recover() == nil {
			t.Error("expected panic before initialization")
		}
	}()
	MustGetConfig()
}
