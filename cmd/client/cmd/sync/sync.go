package sync

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
	"stockkeeper/internal/app/client"
	"stockkeeper/internal/domain/record"
)

var (
	forceSync bool
	showStats bool
)

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Отправить изменения на сервер",
	Long: `Отправляет непустые очереди синхронизации по одной коллекции.

С флагом --force сначала ставит в очереди все записи всех коллекций.
Элементы, которые сервер отклонил, остаются в очереди до следующей попытки.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		if showStats {
			return printStats(app.SyncStats(), asJSON)
		}

		if err := app.CheckConnection(cmd.Context()); err != nil {
			return fmt.Errorf("сервер недоступен: %w", err)
		}

		result, err := app.Sync(cmd.Context(), forceSync)
		if err != nil {
			return fmt.Errorf("ошибка синхронизации: %w", err)
		}
		if asJSON {
			return types.PrintJSON(result)
		}
		printResult(result)
		if !result.Success && !result.Skipped {
			return fmt.Errorf("синхронизация завершилась с ошибками")
		}
		return nil
	},
}

func printResult(result *client.SyncResult) {
	if result.Skipped {
		fmt.Println(types.Warning("⚠ Синхронизация уже выполняется"))
		return
	}

	switch {
	case result.Success:
		fmt.Println(types.Success("✓ Синхронизация завершена"))
	case result.Partial():
		fmt.Println(types.Warning("⚠ Синхронизация выполнена частично"))
	default:
		fmt.Println(types.Failure("✗ Синхронизация не удалась"))
	}

	fmt.Printf("Время выполнения: %v\n", result.Duration.Round(time.Millisecond))
	fmt.Printf("Отправлено: %d\n", result.TotalSynced)
	for _, col := range record.Collections() {
		if n := result.SyncedItems[col]; n > 0 {
			fmt.Printf("  %-16s %d\n", col.DisplayName(), n)
		}
	}

	if len(result.Errors) > 0 {
		fmt.Printf("Ошибок: %d\n", len(result.Errors))
		for i, e := range result.Errors {
			// показываем только первые 5 ошибок
			if i == 5 {
				fmt.Printf("  ... и еще %d\n", len(result.Errors)-5)
				break
			}
			target := e.Collection.String()
			if e.Key != "" {
				target += "/" + e.Key
			}
			fmt.Printf("  • %s [%s]: %s\n", target, e.Operation, e.Error)
		}
	}
}

func printStats(stats client.SyncStats, asJSON bool) error {
	if asJSON {
		return types.PrintJSON(stats)
	}

	fmt.Println(types.Header("=== Статистика синхронизации ==="))
	fmt.Printf("Всего синхронизаций: %d\n", stats.TotalSyncs)
	fmt.Printf("Отправлено записей: %d\n", stats.TotalUploaded)
	fmt.Printf("Ошибок: %d\n", stats.TotalErrors)
	fmt.Printf("Среднее время: %.2f с\n", stats.AvgSyncDuration)
	if !stats.LastSuccessful.IsZero() {
		fmt.Printf("Последняя успешная: %s\n", stats.LastSuccessful.Local().Format("2006-01-02 15:04:05"))
	}
	if !stats.LastFailed.IsZero() {
		fmt.Printf("Последняя с ошибкой: %s\n", stats.LastFailed.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

func init() {
	SyncCmd.Flags().BoolVarP(&forceSync, "force", "f", false, "поставить в очередь все записи перед отправкой")
	SyncCmd.Flags().BoolVar(&showStats, "stats", false, "показать статистику синхронизаций")
}
