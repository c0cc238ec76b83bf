package record

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
)

var (
	remoteLimit  int
	remoteOffset int
)

// RemoteCmd показывает документы, которые уже приняты сервером
var RemoteCmd = &cobra.Command{
	Use:   "remote <collection>",
	Short: "Документы коллекции на сервере",
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

		page, err := app.RemoteDocuments(cmd.Context(), col, remoteLimit, remoteOffset)
		if err != nil {
			return fmt.Errorf("ошибка получения документов с сервера: %w", err)
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return types.PrintJSON(page.Documents)
		}

		if len(page.Documents) == 0 {
			fmt.Printf("%s: на сервере документов нет\n", col.DisplayName())
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Ключ\tID\tИсточник\tУстройство\tОбновлено\t\n")
		fmt.Fprintf(w, "---\t---\t---\t---\t---\t\n")
		for _, doc := range page.Documents {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
				truncate(doc.Key, 30),
				truncate(doc.RecordID, 24),
				doc.Origin,
				truncate(doc.DeviceID, 24),
				doc.UpdatedAt.Local().Format("2006-01-02 15:04"),
			)
		}
		w.Flush()

		fmt.Printf("\n%s: показано %d, смещение %d\n", col.DisplayName(), len(page.Documents), page.Offset)
		return nil
	},
}

func init() {
	RemoteCmd.Flags().IntVarP(&remoteLimit, "limit", "n", 0, "размер страницы (по умолчанию 50)")
	RemoteCmd.Flags().IntVar(&remoteOffset, "offset", 0, "сколько документов пропустить")
}
