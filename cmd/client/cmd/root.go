package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"stockkeeper/cmd/client/cmd/backup"
	"stockkeeper/cmd/client/cmd/device"
	"stockkeeper/cmd/client/cmd/queue"
	"stockkeeper/cmd/client/cmd/record"
	"stockkeeper/cmd/client/cmd/sync"
	"stockkeeper/cmd/client/cmd/types"
	"stockkeeper/internal/app/client"
	"stockkeeper/internal/app/client/config"
	"stockkeeper/internal/utils/logger"
)

var (
	debug     bool
	serverURL string

	app       *client.App
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "stockkeeper",
	Short: "Stockkeeper - офлайн-клиент складского учета",
	Long: `Stockkeeper хранит товары, движения, выдачи, инвентаризации, пользователей
и бронирования на устройстве и отправляет изменения на сервер, когда есть связь.

Все изменения сначала попадают в локальный снимок и очередь синхронизации,
поэтому работа без сети ничего не теряет.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

// Execute запускает CLI. Контекст отменяется по сигналу завершения.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", types.Failure("Ошибка:"), err)
		return 1
	}
	return 0
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}
	if serverURL != "" {
		cfg.ServerAddress = serverURL
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}

	// агент пишет лог в файл с ротацией, остальные команды - в stderr
	var log *slog.Logger
	if cmd == runCmd {
		log, logCloser = logger.NewFile(cfg.Env, cfg.LogPath, logger.WithLevel(level))
	} else {
		log = logger.New(cfg.Env, logger.WithLevel(level), logger.WithOutput(os.Stderr))
	}

	app, err = client.New(cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	err := app.Close()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "включить отладочный лог")
	rootCmd.PersistentFlags().Bool("json", false, "вывод в формате JSON")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "адрес сервера Stockkeeper")

	rootCmd.AddCommand(device.DeviceCmd)
	device.DeviceCmd.AddCommand(device.RegisterCmd)
	device.DeviceCmd.AddCommand(device.StatusCmd)

	rootCmd.AddCommand(record.RecordCmd)
	record.RecordCmd.AddCommand(record.AddCmd)
	record.RecordCmd.AddCommand(record.ListCmd)
	record.RecordCmd.AddCommand(record.RemoteCmd)

	rootCmd.AddCommand(queue.QueueCmd)
	queue.QueueCmd.AddCommand(queue.ListCmd)
	queue.QueueCmd.AddCommand(queue.ClearCmd)
	queue.QueueCmd.AddCommand(queue.PendingCmd)

	rootCmd.AddCommand(sync.SyncCmd)

	rootCmd.AddCommand(backup.BackupCmd)
	backup.BackupCmd.AddCommand(backup.ExportCmd)
	backup.BackupCmd.AddCommand(backup.ImportCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resetCmd)
}
