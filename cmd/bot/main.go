package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"RSIRadar/pkg/api"
	"RSIRadar/pkg/bot"
	"RSIRadar/pkg/collector"
	"RSIRadar/pkg/config"
	"RSIRadar/pkg/database"
	"RSIRadar/pkg/engine"
	"RSIRadar/pkg/messaging"
	"RSIRadar/pkg/model"
	"RSIRadar/pkg/notifier"
	"RSIRadar/pkg/scheduler"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = config.GetDefaultConfigPath()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logrus.Fatalf("加载配置失败: %v", err)
	}
	setupLogging(cfg)

	if cfg.Telegram.Token == "" {
		logrus.Fatal("缺少Telegram令牌，请设置 TELEGRAM_TOKEN")
	}
	if cfg.Telegram.AdminID == 0 {
		logrus.Fatal("缺少管理员ID，请设置 ADMIN_USER_ID")
	}

	db, err := database.New(cfg)
	if err != nil {
		logrus.Fatalf("初始化数据库失败: %v", err)
	}
	defer db.Close()

	// 管理员始终在白名单内
	if err := db.Whitelist().Add(cfg.Telegram.AdminID); err != nil {
		logrus.Fatalf("初始化管理员白名单失败: %v", err)
	}

	// 行情数据源：新浪适配器 + 全局限速闸门 + 连续失败统计
	adapter := collector.NewSinaAdapter(cfg.FetchTimeout(),
		collector.WithEndpoints(cfg.DataSource.QuoteURL, cfg.DataSource.KLineURL),
		collector.WithRetry(cfg.DataSource.RetryAttempts,
			time.Duration(cfg.DataSource.RetryDelaySeconds)*time.Second))
	gate := collector.NewRequestGate(collector.SystemClock(), cfg.RequestInterval(), cfg.RandomDelayMax())
	health := collector.NewFetchHealth(cfg.DataSource.FetchFailureThreshold)

	// 命令处理器在引擎创建后注入，收到更新时才会被调用
	var handler *bot.Handler
	b, err := tgbot.New(cfg.Telegram.Token,
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *tgmodels.Update) {
			if handler != nil {
				handler.Dispatch(ctx, b, update)
			}
		}))
	if err != nil {
		logrus.Fatalf("初始化Telegram失败: %v", err)
	}

	dispatcher := notifier.NewTelegram(b, cfg.Telegram.AdminID, db.Whitelist(), cfg.Telegram.MessagesPerSecond)
	source := collector.NewSource(adapter, gate, health, dispatcher)

	// 通知记录始终落库，配置了NATS时同时转发到消息流
	sinks := multiSink{db.Alert()}
	if cfg.NATS.URL != "" {
		publisher, err := messaging.NewPublisher(cfg.NATS.URL)
		if err != nil {
			logrus.Fatalf("连接NATS失败: %v", err)
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	eng := engine.NewEngine(engine.Options{
		CheckInterval:    cfg.CheckInterval(),
		RSIPeriod:        cfg.Monitor.RSIPeriod,
		HistDays:         cfg.Monitor.HistFetchDays,
		MaxNotifications: cfg.Monitor.MaxNotificationsPerTrigger,
	}, engine.Deps{
		Rules:      db.Rule(),
		Source:     source,
		Dispatcher: dispatcher,
		Sink:       sinks,
		Briefing:   db.Briefing(),
		Now:        time.Now,
	})
	handler = bot.NewHandler(db, source, eng, cfg.Telegram.AdminID, cfg.Monitor.RSIPeriod)

	sched := scheduler.NewScheduler()
	if cfg.Briefing.Enabled {
		if err := sched.AddDaily(cfg.Briefing.Times, eng.RunBriefing); err != nil {
			logrus.Fatalf("注册收盘简报任务失败: %v", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	server := api.NewServer(cfg.API.Port)
	server.SetupRoutes(api.NewHandlers(db, health))
	server.Start()
	defer server.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go eng.Run(ctx)

	logrus.Infof("%s 已启动，管理员 %d", cfg.App.Name, cfg.Telegram.AdminID)
	b.Start(ctx)
	logrus.Info("正在退出...")
}

// multiSink 把一条通知记录广播给多个出口
type multiSink []engine.AlertSink

func (m multiSink) Record(ctx context.Context, alert model.AlertRecord) {
	for _, s := range m {
		s.Record(ctx, alert)
	}
}

// setupLogging 配置日志级别与输出，配置了日志文件时同时写文件和stdout
func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if cfg.Log.File != "" {
		logrus.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}))
	}
}
