package device

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"stockkeeper/cmd/client/cmd/types"
)

var (
	deviceName string
	secret     string
)

var RegisterCmd = &cobra.Command{
	Use:   "register",
	Short: "Зарегистрировать устройство",
	Long: `Регистрирует устройство на сервере по секрету регистрации и сохраняет
выданный токен. Без токена изменения копятся в очередях и не отправляются.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.AppFrom(cmd)
		if err != nil {
			return err
		}

		if deviceName == "" {
			if host, err := os.Hostname(); err == nil {
				deviceName = host
			} else {
				deviceName = "stockkeeper-device"
			}
		}
		if secret == "" {
			secret, err = types.ReadSecret("Секрет регистрации: ")
			if err != nil {
				return err
			}
		}

		fmt.Println("Регистрация устройства...")
		session, err := app.RegisterDevice(cmd.Context(), deviceName, secret)
		if err != nil {
			return err
		}

		fmt.Println(types.Success("✓ Устройство зарегистрировано"))
		fmt.Printf("ID устройства: %s\n", session.DeviceID)
		fmt.Printf("Имя: %s\n", session.Name)
		return nil
	},
}

func init() {
	RegisterCmd.Flags().StringVarP(&deviceName, "name", "n", "", "имя устройства (по умолчанию имя хоста)")
	RegisterCmd.Flags().StringVar(&secret, "secret", "", "секрет регистрации (иначе будет запрошен)")
}
