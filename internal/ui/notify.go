package ui

import "github.com/desertthunder/ptt/internal/progress"

// StatusNotifier forwards tracker notices to the status line.
//
// Notify never blocks; notices arriving while the buffer is full are dropped.
type StatusNotifier struct {
	ch chan progress.Notice
}

var _ progress.Notifier = (*StatusNotifier)(nil)

// NewStatusNotifier creates a notifier buffering up to size notices.
func NewStatusNotifier(size int) *StatusNotifier {
	return &StatusNotifier{ch: make(chan progress.Notice, max(size, 1))}
}

func (s *StatusNotifier) Notify(n progress.Notice) {
	select {
	case s.ch <- n:
	default:
	}
}
