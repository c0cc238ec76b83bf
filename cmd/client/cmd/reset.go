package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Удалить все локальные данные",
	Long: `Очищает все коллекции и очереди синхронизации на устройстве.
Регистрация устройства сохраняется. Неотправленные изменения будут потеряны,
поэтому перед сбросом стоит выполнить stockkeeper backup export.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		if pending := app.PendingCount(); pending > 0 {
			fmt.Println(types.Warning(fmt.Sprintf("⚠ В очередях %d неотправленных элементов", pending)))
		}
		if !resetYes && !types.Confirm("Удалить все локальные данные?") {
			fmt.Println("Сброс отменен")
			return nil
		}

		if err := app.Reset(); err != nil {
			return fmt.Errorf("ошибка сброса: %w", err)
		}
		fmt.Println(types.Success("✓ Локальные данные удалены"))
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "не спрашивать подтверждение")
}
