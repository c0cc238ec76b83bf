package device

import (
	"github.com/spf13/cobra"
)

// DeviceCmd - родительская команда для регистрации устройства
var DeviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Регистрация устройства на сервере",
}
