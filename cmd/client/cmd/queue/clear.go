package queue

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
)

var clearAll bool

var ClearCmd = &cobra.Command{
	Use:   "clear <collection> | --all",
	Short: "Очистить очередь",
	Long: `Удаляет элементы очереди без отправки на сервер. Сами записи коллекции
остаются на месте. Локальные записи, которые сервер еще не подтвердил, будут
снова поставлены в очередь при следующем подсчете ожидающих изменений.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		switch {
		case clearAll && len(args) > 0:
			return fmt.Errorf("укажите коллекцию или --all, но не оба")
		case clearAll:
			if err := app.ClearAllQueues(); err != nil {
				return fmt.Errorf("ошибка очистки очередей: %w", err)
			}
			fmt.Println(types.Success("✓ Все очереди очищены"))
			return nil
		case len(args) == 0:
			return fmt.Errorf("укажите коллекцию или --all")
		}

		col, err := types.ParseCollection(args[0])
		if err != nil {
			return err
		}
		if err := app.ClearQueue(col); err != nil {
			return fmt.Errorf("ошибка очистки очереди: %w", err)
		}
		fmt.Println(types.Success(fmt.Sprintf("✓ Очередь %s очищена", col)))
		return nil
	},
}

func init() {
	ClearCmd.Flags().BoolVar(&clearAll, "all", false, "очистить все очереди")
}
