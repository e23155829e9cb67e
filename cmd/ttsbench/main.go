package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iabetor/ttsbench/internal/audio"
	"github.com/iabetor/ttsbench/internal/bench"
	"github.com/iabetor/ttsbench/internal/config"
	"github.com/iabetor/ttsbench/internal/device"
	"github.com/iabetor/ttsbench/internal/logger"
	"github.com/iabetor/ttsbench/internal/memory"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "configs/ttsbench.yaml", "配置文件路径，不存在时使用内置场景")
	cleanup := flag.Bool("cleanup", false, "运行结束后删除生成的 WAV 文件")
	play := flag.Bool("play", false, "写入后回放每段音频")
	reportPath := flag.String("report", "", "JSON 报告输出路径")
	logLevel := flag.String("log-level", "", "日志级别: debug, info, warn, error")
	flag.Parse()

	cfg, usedDefault, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		return 1
	}
	if *cleanup {
		cfg.Bench.Cleanup = true
	}
	if *play {
		cfg.Bench.Play = true
	}
	if *reportPath != "" {
		cfg.Bench.ReportPath = *reportPath
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if usedDefault {
		logger.Infof("[main] 未找到 %s，使用内置配置", *configPath)
	}
	logger.Infof("[main] ttsbench 启动 (engine=%s, log_level=%s)", cfg.TTS.Engine, cfg.Log.Level)

	scenarios, err := bench.ScenariosFromConfig(cfg.Scenarios, bench.NewTextSources(cfg))
	if err != nil {
		logger.Errorf("[main] 场景配置无效: %v", err)
		return 1
	}
	prefer, err := device.Parse(cfg.Device.Prefer)
	if err != nil {
		logger.Errorf("[main] %v", err)
		return 1
	}

	engine, err := bench.NewEngine(cfg.TTS)
	if err != nil {
		logger.Errorf("[main] 创建 TTS 引擎失败: %v", err)
		return 1
	}

	var mem memory.Reader
	if r, err := memory.NewProcessReader(); err != nil {
		logger.Warnf("[memory] 无法读取进程内存，峰值内存将记为 0: %v", err)
	} else {
		mem = r
	}

	h := bench.New(engine, device.NewPlatformProber(), mem, scenarios, bench.Options{
		OutputDir:      cfg.Bench.OutputDir,
		Prefer:         prefer,
		MemoryInterval: cfg.Bench.MemoryInterval(),
	})
	defer h.Close()

	if cfg.Bench.Play {
		player, err := audio.NewPlayer()
		if err != nil {
			logger.Warnf("[audio] 初始化播放器失败，跳过回放: %v", err)
		} else {
			defer player.Close()
			h.SetPlayer(player)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，在请求之间停止
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Infof("[main] 收到信号 %v，正在停止...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	report := h.Run(ctx)

	if err := bench.PrintSummary(os.Stdout, report); err != nil {
		logger.Warnf("[main] 输出汇总失败: %v", err)
	}
	if cfg.Bench.ReportPath != "" {
		if err := bench.WriteReport(cfg.Bench.ReportPath, report); err != nil {
			logger.Errorf("[main] 写入报告失败: %v", err)
		} else {
			logger.Infof("[main] 报告已写入 %s", cfg.Bench.ReportPath)
		}
	}
	if cfg.Bench.Cleanup {
		if _, err := h.Cleanup(); err != nil {
			logger.Warnf("[main] 清理未完成: %v", err)
		}
	}

	logger.Infof("[main] ttsbench 结束: 成功 %d, 失败 %d", report.Succeeded(), report.Failed())
	return 0
}
