package backup

import (
	"github.com/spf13/cobra"
)

// BackupCmd - родительская команда резервного копирования снимка
var BackupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Резервная копия локальных данных",
	Long: `Экспорт и импорт полного локального снимка: коллекций, очередей
синхронизации и отметки последнего изменения. Копию можно зашифровать паролем.`,
}
