package queue

import (
	"github.com/spf13/cobra"
)

// QueueCmd - родительская команда для очередей синхронизации
var QueueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Очереди синхронизации",
	Long:  `Просмотр и очистка очередей изменений, ожидающих отправки на сервер.`,
}
