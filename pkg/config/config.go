package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	App struct {
		Name string `yaml:"name"`
		Env  string `yaml:"env"`
	} `yaml:"app"`

	Telegram struct {
		Token             string `yaml:"token"`
		AdminID           int64  `yaml:"admin_id"`
		MessagesPerSecond int    `yaml:"messages_per_second"`
	} `yaml:"telegram"`

	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`

	DataSource struct {
		QuoteURL               string  `yaml:"quote_url"`
		KLineURL               string  `yaml:"kline_url"`
		TimeoutSeconds         int     `yaml:"timeout_seconds"`
		RequestIntervalSeconds float64 `yaml:"request_interval_seconds"`
		RandomDelayMaxSeconds  float64 `yaml:"random_delay_max_seconds"`
		FetchFailureThreshold  int     `yaml:"fetch_failure_threshold"`
		RetryAttempts          int     `yaml:"retry_attempts"`
		RetryDelaySeconds      int     `yaml:"retry_delay_seconds"`
	} `yaml:"data_source"`

	Monitor struct {
		CheckIntervalSeconds       int `yaml:"check_interval_seconds"`
		RSIPeriod                  int `yaml:"rsi_period"`
		HistFetchDays              int `yaml:"hist_fetch_days"`
		MaxNotificationsPerTrigger int `yaml:"max_notifications_per_trigger"`
	} `yaml:"monitor"`

	Briefing struct {
		Enabled bool     `yaml:"enabled"`
		Times   []string `yaml:"times"`
	} `yaml:"briefing"`

	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	API struct {
		Port string `yaml:"port"`
	} `yaml:"api"`

	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
}

// LoadConfig 加载配置：.env文件 → YAML文件 → 环境变量覆盖 → 默认值
// path为空或文件不存在时只用环境变量和默认值
func LoadConfig(path string) (*Config, error) {
	// 读取.env（不存在则忽略）
	_ = godotenv.Load()

	var config Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("读取配置文件失败: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	overrideFromEnv(&config)
	applyDefaults(&config)

	if config.Monitor.RSIPeriod < 1 {
		return nil, fmt.Errorf("非法的RSI周期: %d", config.Monitor.RSIPeriod)
	}
	return &config, nil
}

// overrideFromEnv 使用环境变量覆盖配置
func overrideFromEnv(config *Config) {
	if env := os.Getenv("APP_NAME"); env != "" {
		config.App.Name = env
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		config.App.Env = env
	}

	// Telegram配置
	if env := os.Getenv("TELEGRAM_TOKEN"); env != "" {
		config.Telegram.Token = env
	}
	if v, ok := envInt64("ADMIN_USER_ID"); ok {
		config.Telegram.AdminID = v
	}

	// 数据库配置
	if env := os.Getenv("DB_HOST"); env != "" {
		config.Database.Host = env
	}
	if v, ok := envInt("DB_PORT"); ok {
		config.Database.Port = v
	}
	if env := os.Getenv("DB_USER"); env != "" {
		config.Database.User = env
	}
	if env := os.Getenv("DB_PASSWORD"); env != "" {
		config.Database.Password = env
	}
	if env := os.Getenv("DB_NAME"); env != "" {
		config.Database.DBName = env
	}

	// 监控参数
	if v, ok := envInt("CHECK_INTERVAL_SECONDS"); ok {
		config.Monitor.CheckIntervalSeconds = v
	}
	if v, ok := envInt("RSI_PERIOD"); ok {
		config.Monitor.RSIPeriod = v
	}
	if v, ok := envInt("HIST_FETCH_DAYS"); ok {
		config.Monitor.HistFetchDays = v
	}
	if v, ok := envInt("MAX_NOTIFICATIONS_PER_TRIGGER"); ok {
		config.Monitor.MaxNotificationsPerTrigger = v
	}

	// 数据源参数
	if v, ok := envFloat("REQUEST_INTERVAL_SECONDS"); ok {
		config.DataSource.RequestIntervalSeconds = v
	}
	if v, ok := envFloat("RANDOM_DELAY_MAX_SECONDS"); ok {
		config.DataSource.RandomDelayMaxSeconds = v
	}
	if v, ok := envInt("FETCH_FAILURE_THRESHOLD"); ok {
		config.DataSource.FetchFailureThreshold = v
	}
	if v, ok := envInt("FETCH_TIMEOUT_SECONDS"); ok {
		config.DataSource.TimeoutSeconds = v
	}
	if v, ok := envInt("FETCH_RETRY_ATTEMPTS"); ok {
		config.DataSource.RetryAttempts = v
	}
	if v, ok := envInt("FETCH_RETRY_DELAY_SECONDS"); ok {
		config.DataSource.RetryDelaySeconds = v
	}

	// 每日简报
	if env := os.Getenv("ENABLE_DAILY_BRIEFING"); env != "" {
		config.Briefing.Enabled = env == "true" || env == "1"
	}
	if env := os.Getenv("DAILY_BRIEFING_TIMES"); env != "" {
		config.Briefing.Times = splitTimes(env)
	}

	if env := os.Getenv("NATS_URL"); env != "" {
		config.NATS.URL = env
	}
	if env := os.Getenv("API_PORT"); env != "" {
		config.API.Port = env
	}
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		config.Log.Level = env
	}
	if env := os.Getenv("LOG_FILE"); env != "" {
		config.Log.File = env
	}
}

// applyDefaults 填充未设置项的默认值
func applyDefaults(config *Config) {
	if config.App.Name == "" {
		config.App.Name = "rsi-radar"
	}
	if config.Database.Port == 0 {
		config.Database.Port = 5432
	}
	if config.Database.SSLMode == "" {
		config.Database.SSLMode = "disable"
	}
	if config.DataSource.TimeoutSeconds == 0 {
		config.DataSource.TimeoutSeconds = 10
	}
	if config.DataSource.RequestIntervalSeconds == 0 {
		config.DataSource.RequestIntervalSeconds = 1.0
	}
	if config.DataSource.FetchFailureThreshold == 0 {
		config.DataSource.FetchFailureThreshold = 5
	}
	if config.DataSource.RetryAttempts == 0 {
		config.DataSource.RetryAttempts = 3
	}
	if config.DataSource.RetryDelaySeconds == 0 {
		config.DataSource.RetryDelaySeconds = 5
	}
	if config.Monitor.CheckIntervalSeconds == 0 {
		config.Monitor.CheckIntervalSeconds = 60
	}
	if config.Monitor.RSIPeriod == 0 {
		config.Monitor.RSIPeriod = 6
	}
	if config.Monitor.HistFetchDays == 0 {
		config.Monitor.HistFetchDays = 200
	}
	if config.Monitor.MaxNotificationsPerTrigger == 0 {
		config.Monitor.MaxNotificationsPerTrigger = 1
	}
	if len(config.Briefing.Times) == 0 {
		config.Briefing.Times = []string{"15:30"}
	}
	if config.Telegram.MessagesPerSecond == 0 {
		config.Telegram.MessagesPerSecond = 20
	}
	if config.API.Port == "" {
		config.API.Port = "8080"
	}
	if config.Log.Level == "" {
		config.Log.Level = "info"
	}
}

// FetchTimeout 单次HTTP请求超时
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.DataSource.TimeoutSeconds) * time.Second
}

// RequestInterval 请求间隔
func (c *Config) RequestInterval() time.Duration {
	return time.Duration(c.DataSource.RequestIntervalSeconds * float64(time.Second))
}

// RandomDelayMax 行情请求前的最大随机延迟
func (c *Config) RandomDelayMax() time.Duration {
	return time.Duration(c.DataSource.RandomDelayMaxSeconds * float64(time.Second))
}

// CheckInterval 规则检查间隔
func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Monitor.CheckIntervalSeconds) * time.Second
}

// GetDefaultConfigPath 获取默认配置文件路径
func GetDefaultConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	return fmt.Sprintf("configs/%s/app.yaml", env)
}

func envInt(key string) (int, bool) {
	if env := os.Getenv(key); env != "" {
		if v, err := strconv.Atoi(env); err == nil {
			return v, true
		}
	}
	return 0, false
}

func envInt64(key string) (int64, bool) {
	if env := os.Getenv(key); env != "" {
		if v, err := strconv.ParseInt(env, 10, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func envFloat(key string) (float64, bool) {
	if env := os.Getenv(key); env != "" {
		if v, err := strconv.ParseFloat(env, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

func splitTimes(s string) []string {
	var times []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			times = append(times, t)
		}
	}
	return times
}
