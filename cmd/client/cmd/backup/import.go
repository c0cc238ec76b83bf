package backup

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
	"stockkeeper/internal/app/client/crypto"
)

var importEncrypted bool

var ImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Восстановить снимок из файла",
	Long: `Полностью заменяет локальный снимок содержимым копии. Если файл не
разбирается, текущие данные не меняются. Зашифрованная копия распознается
автоматически, флаг --encrypt требует, чтобы копия была зашифрована.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		data, err := readFile(args[0])
		if err != nil {
			return err
		}

		sealed := crypto.IsSealed(data)
		if importEncrypted && !sealed {
			return fmt.Errorf("файл не является зашифрованной копией")
		}
		if sealed {
			passphrase, err := types.ReadSecret("Пароль резервной копии: ")
			if err != nil {
				return err
			}
			data, err = crypto.Open(data, passphrase)
			if err != nil {
				return fmt.Errorf("ошибка расшифровки: %w", err)
			}
		}

		if err := app.Import(string(data)); err != nil {
			return fmt.Errorf("ошибка импорта: %w", err)
		}
		fmt.Println(types.Success("✓ Снимок восстановлен"))
		fmt.Printf("Ожидает отправки: %d\n", app.PendingCount())
		return nil
	},
}

func readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	return data, nil
}

func init() {
	ImportCmd.Flags().BoolVar(&importEncrypted, "encrypt", false, "копия зашифрована паролем")
}
