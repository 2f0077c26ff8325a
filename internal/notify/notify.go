// Package notify delivers short transient messages to the user.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Terminal prints styled one-line toasts. Safe for concurrent use.
type Terminal struct {
	mu  sync.Mutex
	out io.Writer

	successStyle lipgloss.Style
	errorStyle   lipgloss.Style
}

func NewTerminal(out io.Writer) *Terminal {
	return &Terminal{
		out:          out,
		successStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		errorStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

func (t *Terminal) Success(msg string) {
	t.print(t.successStyle.Render("✓ " + msg))
}

func (t *Terminal) Error(msg string) {
	t.print(t.errorStyle.Render("✗ " + msg))
}

func (t *Terminal) print(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, line)
}

// Log writes notifications to a zerolog logger.
type Log struct {
	logger zerolog.Logger
}

func NewLog(logger zerolog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Success(msg string) {
	l.logger.Info().Str("notification", string(LevelSuccess)).Msg(msg)
}

func (l *Log) Error(msg string) {
	l.logger.Warn().Str("notification", string(LevelError)).Msg(msg)
}

// Multi fans a notification out to several notifiers.
type Multi []Notifier

func (m Multi) Success(msg string) {
	for _, n := range m {
		n.Success(msg)
	}
}

func (m Multi) Error(msg string) {
	for _, n := range m {
		n.Error(msg)
	}
}

type Message struct {
	Level Level
	Text  string
}

// Recorder keeps every notification in order.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

func (r *Recorder) Success(msg string) {
	r.add(LevelSuccess, msg)
}

func (r *Recorder) Error(msg string) {
	r.add(LevelError, msg)
}

func (r *Recorder) add(level Level, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Level: level, Text: msg})
}

// Messages returns a copy of what was recorded so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message, if any.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}
