package device

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
	"stockkeeper/internal/app/client"
	"stockkeeper/internal/domain/record"
)

var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Показать регистрацию и состояние сервера",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		fmt.Println(types.Header("=== Устройство ==="))
		session, err := app.Session()
		switch {
		case errors.Is(err, client.ErrNoSession):
			if app.IsRegistered() {
				fmt.Println("Токен задан через окружение")
			} else {
				fmt.Println(types.Warning("Устройство не зарегистрировано"))
			}
		case err != nil:
			return err
		default:
			fmt.Printf("ID: %s\n", session.DeviceID)
			fmt.Printf("Имя: %s\n", session.Name)
			fmt.Printf("Зарегистрировано: %s\n", session.RegisteredAt.Local().Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
		fmt.Println(types.Header("=== Сервер ==="))
		if err := app.CheckConnection(cmd.Context()); err != nil {
			fmt.Printf("%s %v\n", types.Failure("✗ Недоступен:"), err)
			return nil
		}
		fmt.Println(types.Success("✓ Доступен"))

		if !app.IsRegistered() {
			return nil
		}
		status, err := app.RemoteStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения статуса: %w", err)
		}
		for _, col := range record.Collections() {
			fmt.Printf("  %-16s %d\n", col.DisplayName(), status.Collections[col.String()])
		}
		fmt.Printf("Всего документов: %d\n", status.Total)
		return nil
	},
}
