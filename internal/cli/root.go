package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"vaultsync/internal/config"
	"vaultsync/internal/database"
	"vaultsync/internal/settings"
	syncer "vaultsync/internal/sync"
	"vaultsync/pkg/logger"
)

const defaultConfigPath = "config/config.yaml"

// app 一次命令执行所需的全部依赖
type app struct {
	cfg    *config.Config
	store  *settings.Store
	db     *database.DB
	runner *syncer.Runner
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			slog.Warn("关闭数据库失败", "err", err)
		}
		a.db = nil
	}
}

// Execute 解析命令行并执行，无论成功失败都会释放数据库
func Execute() error {
	root, a := newRootCmd()
	defer a.close()
	return root.Execute()
}

func newRootCmd() (*cobra.Command, *app) {
	var configPath string
	a := &app{}

	root := &cobra.Command{
		Use:   "vaultsync",
		Short: "One-way incremental sync of external files into a vault",
		Long: `vaultsync copies external files and folders into a vault directory,
skipping unchanged files and anything matched by the exclusion patterns.

Tasks, patterns and the schedule live in the vault's settings file.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(configPath)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config.yaml")

	root.AddCommand(
		newRunCmd(a),
		newValidateCmd(a),
		newDaemonCmd(a),
		newSettingsCmd(a),
		newTaskCmd(a),
		newHistoryCmd(a),
	)
	return root, a
}

// open 加载配置 -> 初始化日志 -> 加载设置 -> 打开历史数据库
func (a *app) open(configPath string) error {
	// 1. 加载配置
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	// 2. 初始化日志系统
	err = logger.Setup(logger.Options{
		Level:      cfg.System.LogLevel,
		File:       cfg.System.LogFile,
		MaxSizeMB:  cfg.System.LogMaxSize,
		MaxBackups: cfg.System.LogBackups,
		MaxAgeDays: cfg.System.LogMaxAge,
	})
	if err != nil {
		return fmt.Errorf("setup logger: %w", err)
	}
	slog.Debug("配置已加载",
		"vault", cfg.Vault.Root,
		"settings", cfg.Vault.SettingsFile,
		"db", cfg.System.DBPath,
	)

	// 3. 加载同步设置 (宽松模式，缺失或损坏时使用默认值)
	store, err := settings.OpenStore(cfg.Vault.SettingsFile)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	a.store = store

	// 4. 初始化数据库
	db, err := database.NewBoltDB(cfg.System.DBPath)
	if err != nil {
		return fmt.Errorf("open history db: %w", err)
	}
	a.db = db

	a.runner = syncer.NewRunner(syncer.NewEngine(nil), db)
	return nil
}
