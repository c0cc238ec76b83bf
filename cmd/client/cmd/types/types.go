// Package types содержит общее для команд клиента: доступ к приложению, ввод и вывод.
package types

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"stockkeeper/internal/app/client"
	"stockkeeper/internal/domain/record"
)

type contextKey string

// ClientAppKey - ключ приложения в контексте команды
const ClientAppKey contextKey = "app"

var (
	Success = color.New(color.FgGreen).SprintFunc()
	Warning = color.New(color.FgYellow).SprintFunc()
	Failure = color.New(color.FgRed).SprintFunc()
	Header  = color.New(color.Bold).SprintFunc()
)

// AppFrom достает приложение из контекста команды
func AppFrom(cmd *cobra.Command) (*client.App, error) {
	app, ok := cmd.Context().Value(ClientAppKey).(*client.App)
	if !ok || app == nil {
		return nil, fmt.Errorf("приложение не инициализировано")
	}
	return app, nil
}

// ParseCollection разбирает аргумент коллекции и подсказывает допустимые значения
func ParseCollection(name string) (record.Collection, error) {
	col, err := record.ParseCollection(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		names := make([]string, 0, len(record.Collections()))
		for _, c := range record.Collections() {
			names = append(names, c.String())
		}
		return "", fmt.Errorf("%w. Допустимые коллекции: %s", err, strings.Join(names, ", "))
	}
	return col, nil
}

// ReadSecret читает пароль без эха. Если stdin не терминал, читается одна строка.
func ReadSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		return string(secret), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ReadNewSecret запрашивает пароль дважды
func ReadNewSecret(prompt string) (string, error) {
	secret, err := ReadSecret(prompt)
	if err != nil {
		return "", err
	}
	confirm, err := ReadSecret("Повторите пароль: ")
	if err != nil {
		return "", err
	}
	if secret != confirm {
		return "", fmt.Errorf("пароли не совпадают")
	}
	return secret, nil
}

// Confirm спрашивает подтверждение y/N
func Confirm(prompt string) bool {
	fmt.Fprintf(os.Stderr, "%s [y/N]: ", prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes" || answer == "д" || answer == "да"
}

// PrintJSON печатает значение в stdout с отступами
func PrintJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
