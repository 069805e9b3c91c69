package ui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Work is a pipeline run. It reports progress through send and returns
// the completion summary.
type Work func(ctx context.Context, send func(tea.Msg)) (Complete, error)

// Run shows m while work runs on its own goroutine. Quitting the view with
// ctrl+c cancels the work's context. The work's error is returned.
func Run(ctx context.Context, m *Model, work Work) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(m)
	done := make(chan error, 1)

	go func() {
		summary, err := work(ctx, p.Send)
		if err != nil {
			p.Send(Failed{Err: err})
		} else {
			p.Send(summary)
		}
		done <- err
	}()

	_, uiErr := p.Run()
	cancel()
	err := <-done
	if err == nil && uiErr != nil {
		return fmt.Errorf("running UI: %w", uiErr)
	}
	return err
}
