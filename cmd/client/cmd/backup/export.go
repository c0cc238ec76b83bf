package backup

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
	"stockkeeper/internal/app/client/crypto"
)

var (
	exportOut     string
	exportEncrypt bool
)

var ExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Сохранить снимок в файл",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		text, err := app.Export()
		if err != nil {
			return fmt.Errorf("ошибка экспорта: %w", err)
		}
		data := []byte(text)

		if exportEncrypt {
			passphrase, err := types.ReadNewSecret("Пароль резервной копии: ")
			if err != nil {
				return err
			}
			data, err = crypto.Seal(data, passphrase)
			if err != nil {
				return fmt.Errorf("ошибка шифрования: %w", err)
			}
		}

		if exportOut == "" || exportOut == "-" {
			_, err := os.Stdout.Write(append(data, '\n'))
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o600); err != nil {
			return fmt.Errorf("ошибка записи файла: %w", err)
		}
		fmt.Fprintln(os.Stderr, types.Success("✓ Резервная копия сохранена: "+exportOut))
		return nil
	},
}

func init() {
	ExportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "файл копии (по умолчанию stdout)")
	ExportCmd.Flags().BoolVar(&exportEncrypt, "encrypt", false, "зашифровать копию паролем")
}
