package queue

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
)

var PendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Число изменений, ожидающих отправки",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		count := app.PendingCount()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return types.PrintJSON(map[string]int{"pending": count})
		}
		fmt.Println(count)
		return nil
	},
}
