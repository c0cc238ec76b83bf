package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Запустить агент синхронизации",
	Long: `Агент следит за связью с сервером и за входящим каталогом.

Когда связь держится стабильно, агент отправляет накопленные очереди.
JSON-файлы вида {"collection": "...", "items": [...]}, положенные во входящий
каталог, записываются в локальный снимок и переименовываются с суффиксом .done.
Лог агента пишется в файл с ротацией. Остановка - Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		if !app.IsRegistered() {
			fmt.Println(types.Warning("⚠ Устройство не зарегистрировано, записи будут копиться в очереди"))
		}
		fmt.Printf("Агент запущен. Ожидает отправки: %d\n", app.PendingCount())

		if err := app.Run(cmd.Context()); err != nil {
			return fmt.Errorf("ошибка агента: %w", err)
		}

		fmt.Println("Агент остановлен")
		return nil
	},
}
