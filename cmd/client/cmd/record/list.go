package record

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
	"stockkeeper/internal/domain/record"
)

var ListCmd = &cobra.Command{
	Use:   "list <collection>",
	Short: "Список записей коллекции",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}
		col, err := types.ParseCollection(args[0])
		if err != nil {
			return err
		}

		records, err := app.ListRecords(col)
		if err != nil {
			return fmt.Errorf("ошибка получения списка записей: %w", err)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return types.PrintJSON(records)
		}
		return printRecordsTable(col, records)
	},
}

func printRecordsTable(col record.Collection, records []record.Record) error {
	if len(records) == 0 {
		fmt.Printf("%s: записи не найдены\n", col.DisplayName())
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Ключ\tID\tИсточник\tОбновлено\tСинхронизировано\t\n")
	fmt.Fprintf(w, "---\t---\t---\t---\t---\t\n")

	for _, rec := range records {
		base := rec.Common()
		synced := "нет"
		if base.SyncedAt != nil {
			synced = base.SyncedAt.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
			truncate(rec.Key(), 30),
			truncate(base.ID, 24),
			base.Origin,
			rec.Recency().Local().Format("2006-01-02 15:04"),
			synced,
		)
	}

	w.Flush()
	fmt.Printf("\n%s, всего записей: %d\n", col.DisplayName(), len(records))
	return nil
}

func truncate(s string, length int) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length-3]) + "..."
}
