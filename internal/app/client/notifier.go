package client

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// StderrNotifier печатает пользователю предупреждение о том, что данные не сохранены.
// Одно и то же сообщение не повторяется подряд.
type StderrNotifier struct {
	out  io.Writer
	mu   sync.Mutex
	last string
}

func NewStderrNotifier(out io.Writer) *StderrNotifier {
	return &StderrNotifier{out: out}
}

func (n *StderrNotifier) NotifyStorageExhausted(err error) {
	msg := err.Error()

	n.mu.Lock()
	defer n.mu.Unlock()
	if msg == n.last {
		return
	}
	n.last = msg

	warn := color.New(color.FgRed, color.Bold)
	warn.Fprintln(n.out, "⚠ Не удалось сохранить локальные данные")
	color.New(color.FgYellow).Fprintf(n.out, "  %s\n", msg)
	color.New(color.FgYellow).Fprintln(n.out, "  Освободите место или выполните: stockkeeper backup export")
}
