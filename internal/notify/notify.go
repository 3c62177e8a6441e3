package notify

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Level is the severity of a user-facing notification
type Level int

const (
	LevelInfo Level = iota + 1
	LevelSuccess
	LevelError
)

// String returns string representation
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Notifier delivers transient user-facing notices
type Notifier interface {
	Info(message string)
	Success(message string)
	Error(message string)
}

// Console prints notifications to a writer and mirrors them into the log
type Console struct {
	out    io.Writer
	logger *zap.Logger
	mu     sync.Mutex
}

// NewConsole creates a console notifier
func NewConsole(out io.Writer, logger *zap.Logger) *Console {
	return &Console{out: out, logger: logger}
}

// Info prints an informational notice
func (c *Console) Info(message string) {
	c.print("ℹ️ ", message)
	c.logger.Info("Notification", zap.String("level", "info"), zap.String("message", message))
}

// Success prints a success notice
func (c *Console) Success(message string) {
	c.print("✅", message)
	c.logger.Info("Notification", zap.String("level", "success"), zap.String("message", message))
}

// Error prints an error notice
func (c *Console) Error(message string) {
	c.print("❌", message)
	c.logger.Warn("Notification", zap.String("level", "error"), zap.String("message", message))
}

func (c *Console) print(icon, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", icon, message)
}

// Notification is one recorded notice
type Notification struct {
	Level   Level
	Message string
}

// Recorder keeps every notification in memory
type Recorder struct {
	mu    sync.Mutex
	items []Notification
}

// Info records an informational notice
func (r *Recorder) Info(message string) { r.add(LevelInfo, message) }

// Success records a success notice
func (r *Recorder) Success(message string) { r.add(LevelSuccess, message) }

// Error records an error notice
func (r *Recorder) Error(message string) { r.add(LevelError, message) }

func (r *Recorder) add(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Notification{Level: level, Message: message})
}

// All returns a copy of the recorded notifications
func (r *Recorder) All() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.items...)
}

// Last returns the most recent notification
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Count returns how many notifications of level were recorded
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, item := range r.items {
		if item.Level == level {
			n++
		}
	}
	return n
}

// Prompt asks yes/no questions on a terminal
type Prompt struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompt creates a prompt reading answers from in
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out}
}

// Confirm prints message and reads the answer. Only y/yes confirms.
func (p *Prompt) Confirm(message string) (bool, error) {
	fmt.Fprintf(p.out, "⚠️  %s [y/N]: ", message)

	answer, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// AutoConfirm answers every question with a fixed value
type AutoConfirm bool

// Confirm returns the fixed answer
func (a AutoConfirm) Confirm(string) (bool, error) {
	return bool(a), nil
}
