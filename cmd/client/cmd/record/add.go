package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
)

var (
	addData string
	addFile string
)

var AddCmd = &cobra.Command{
	Use:   "add <collection>",
	Short: "Добавить или обновить запись",
	Long: `Записывает JSON-объект (или массив объектов) в коллекцию и ставит его в очередь
синхронизации. Запись с тем же ключом объединяется с предыдущей версией.

Пример:
  stockkeeper record add products --data '{"sku":"SKU-1","name":"Дрель","stock":4}'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}
		col, err := types.ParseCollection(args[0])
		if err != nil {
			return err
		}

		items, err := readItems()
		if err != nil {
			return err
		}

		added := 0
		for i, item := range items {
			rec, err := app.AddRecord(col, item)
			if err != nil {
				fmt.Printf("%s элемент %d: %v\n", types.Failure("✗"), i+1, err)
				continue
			}
			added++
			fmt.Printf("%s %s (ID: %s)\n", types.Success("✓"), rec.Key(), rec.Identity().ID)
		}

		fmt.Printf("Записано: %d из %d. Ожидает отправки: %d\n", added, len(items), app.PendingCount())
		if added < len(items) {
			return fmt.Errorf("не все записи приняты")
		}
		return nil
	},
}

func readItems() ([]map[string]any, error) {
	var data []byte
	switch {
	case addData != "" && addFile != "":
		return nil, fmt.Errorf("укажите только один из флагов --data или --file")
	case addData != "":
		data = []byte(addData)
	case addFile != "":
		var err error
		data, err = os.ReadFile(addFile)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения файла: %w", err)
		}
	default:
		return nil, fmt.Errorf("укажите данные через --data или --file")
	}

	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var items []map[string]any
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("некорректный JSON: %w", err)
		}
		return items, nil
	}

	var item map[string]any
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("некорректный JSON: %w", err)
	}
	return []map[string]any{item}, nil
}

func init() {
	AddCmd.Flags().StringVarP(&addData, "data", "d", "", "JSON записи")
	AddCmd.Flags().StringVarP(&addFile, "file", "f", "", "файл с JSON записи или массивом записей")
}
