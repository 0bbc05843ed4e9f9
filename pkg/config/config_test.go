package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Monitor.RSIPeriod != 6 {
		t.Errorf("RSIPeriod = %d, 期望默认6", cfg.Monitor.RSIPeriod)
	}
	if cfg.Monitor.CheckIntervalSeconds != 60 {
		t.Errorf("CheckIntervalSeconds = %d", cfg.Monitor.CheckIntervalSeconds)
	}
	if cfg.Monitor.MaxNotificationsPerTrigger != 1 {
		t.Errorf("MaxNotificationsPerTrigger = %d", cfg.Monitor.MaxNotificationsPerTrigger)
	}
	if cfg.DataSource.FetchFailureThreshold != 5 {
		t.Errorf("FetchFailureThreshold = %d", cfg.DataSource.FetchFailureThreshold)
	}
	if cfg.RequestInterval() != time.Second {
		t.Errorf("RequestInterval = %v", cfg.RequestInterval())
	}
	if len(cfg.Briefing.Times) != 1 || cfg.Briefing.Times[0] != "15:30" {
		t.Errorf("Briefing.Times = %v", cfg.Briefing.Times)
	}
}

func TestLoadConfigYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	data := `
monitor:
  check_interval_seconds: 30
  rsi_period: 14
data_source:
  timeout_seconds: 8
  request_interval_seconds: 2.5
  random_delay_max_seconds: 0.5
briefing:
  enabled: true
  times: ["15:35", "20:00"]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Monitor.RSIPeriod != 14 || cfg.Monitor.CheckIntervalSeconds != 30 {
		t.Errorf("monitor配置未生效: %+v", cfg.Monitor)
	}
	if cfg.RequestInterval() != 2500*time.Millisecond {
		t.Errorf("RequestInterval = %v", cfg.RequestInterval())
	}
	if cfg.RandomDelayMax() != 500*time.Millisecond {
		t.Errorf("RandomDelayMax = %v", cfg.RandomDelayMax())
	}
	if cfg.FetchTimeout() != 8*time.Second {
		t.Errorf("FetchTimeout = %v", cfg.FetchTimeout())
	}
	if len(cfg.Briefing.Times) != 2 {
		t.Errorf("Briefing.Times = %v", cfg.Briefing.Times)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("ADMIN_USER_ID", "987654")
	t.Setenv("RSI_PERIOD", "12")
	t.Setenv("REQUEST_INTERVAL_SECONDS", "0.5")
	t.Setenv("DAILY_BRIEFING_TIMES", "15:31, 16:00")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" || cfg.Telegram.AdminID != 987654 {
		t.Errorf("telegram环境变量未生效: %+v", cfg.Telegram)
	}
	if cfg.Monitor.RSIPeriod != 12 {
		t.Errorf("RSIPeriod = %d", cfg.Monitor.RSIPeriod)
	}
	if cfg.RequestInterval() != 500*time.Millisecond {
		t.Errorf("RequestInterval = %v", cfg.RequestInterval())
	}
	want := []string{"15:31", "16:00"}
	if len(cfg.Briefing.Times) != 2 || cfg.Briefing.Times[0] != want[0] || cfg.Briefing.Times[1] != want[1] {
		t.Errorf("Briefing.Times = %v, 期望 %v", cfg.Briefing.Times, want)
	}
}

func TestLoadConfigRejectsBadPeriod(t *testing.T) {
	t.Setenv("RSI_PERIOD", "-1")
	if _, err := LoadConfig(""); err == nil {
		t.Error("非法RSI周期应报错")
	}
}
