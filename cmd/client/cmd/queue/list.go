package queue

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
	"stockkeeper/internal/app/client"
	"stockkeeper/internal/domain/record"
)

var ListCmd = &cobra.Command{
	Use:   "list [collection]",
	Short: "Показать очереди",
	Long: `Без аргумента печатает размер очереди каждой коллекции.
С коллекцией печатает ее элементы.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		if len(args) == 0 {
			return printSummary(app, asJSON)
		}

		col, err := types.ParseCollection(args[0])
		if err != nil {
			return err
		}
		entries, err := app.Queue(col)
		if err != nil {
			return fmt.Errorf("ошибка чтения очереди: %w", err)
		}
		if asJSON {
			return types.PrintJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Printf("%s: очередь пуста\n", col.DisplayName())
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Ключ\tID\tСоздано офлайн\tВ очереди с\t\n")
		for _, entry := range entries {
			offline := "нет"
			if entry.Meta.OfflineCreated {
				offline = "да"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
				entry.Record.Key(),
				entry.Record.Identity().ID,
				offline,
				time.UnixMilli(entry.Meta.OfflineTimestamp).Format("2006-01-02 15:04:05"),
			)
		}
		w.Flush()
		fmt.Printf("\n%s, в очереди: %d\n", col.DisplayName(), len(entries))
		return nil
	},
}

func printSummary(app *client.App, asJSON bool) error {
	counts := make(map[record.Collection]int, len(record.Collections()))
	total := 0
	for _, col := range record.Collections() {
		entries, err := app.Queue(col)
		if err != nil {
			return fmt.Errorf("ошибка чтения очереди %s: %w", col, err)
		}
		counts[col] = len(entries)
		total += len(entries)
	}

	if asJSON {
		return types.PrintJSON(map[string]any{"queues": counts, "total": total})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, col := range record.Collections() {
		fmt.Fprintf(w, "%s\t%s\t%d\t\n", col, col.DisplayName(), counts[col])
	}
	w.Flush()
	fmt.Printf("\nВсего в очередях: %d\n", total)
	return nil
}
