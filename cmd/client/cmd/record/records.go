package record

import (
	"github.com/spf13/cobra"
)

// RecordCmd группирует работу с записями: локальный снимок и документы на сервере
var RecordCmd = &cobra.Command{
	Use:     "record",
	Aliases: []string{"records"},
	Short:   "Записи коллекций",
	Long: `Запись добавляется в локальный снимок и сразу попадает в очередь синхронизации.
Команда remote показывает, что сервер уже принял.

Коллекции: products, movements, loans, schedules, users, reservations.`,
}
