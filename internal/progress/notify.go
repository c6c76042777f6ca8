package progress

import (
	"github.com/charmbracelet/log"
)

// Level is the severity of a [Notice].
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	if l == LevelError {
		return "error"
	}
	return "info"
}

// Notice is a non-blocking, user-visible message about a progress operation.
type Notice struct {
	Level   Level
	Message string
	Err     error
}

// Notifier surfaces notices to the user without interrupting them.
type Notifier interface {
	Notify(Notice)
}

// LogNotifier writes notices as log lines.
type LogNotifier struct {
	Logger *log.Logger
}

func (l LogNotifier) Notify(n Notice) {
	if l.Logger == nil {
		return
	}
	if n.Level == LevelError {
		l.Logger.Error(n.Message, "error", n.Err)
		return
	}
	l.Logger.Info(n.Message)
}
