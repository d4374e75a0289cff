// Package recorder implements the voice capture collaborator. It runs a
// user-configured external command while the triage marker is parked on
// the mic target and captures its stdout as the note transcript.
package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// ErrNotConfigured is returned when no capture command is set.
var ErrNotConfigured = errors.New("recorder: no capture command configured")

// ErrNotRecording is returned when Stop is called without a capture in
// progress.
var ErrNotRecording = errors.New("recorder: no capture in progress")

// Recorder runs the configured capture command for one recording at a
// time. The command is expected to transcribe audio until interrupted
// and print the transcript to stdout.
type Recorder struct {
	command string

	mu     sync.Mutex
	cmd    *exec.Cmd
	out    *bytes.Buffer
	itemID string
}

// New creates a recorder for the given capture command. The command is
// run through the shell so it can carry arguments and pipes.
func New(command string) *Recorder {
	return &Recorder{command: command}
}

// Start launches the capture command for an item. A capture already in
// progress is stopped and discarded first; ctx cancellation kills the
// command before any transcript is collected.
func (r *Recorder) Start(ctx context.Context, itemID string) error {
	if strings.TrimSpace(r.command) == "" {
		return ErrNotConfigured
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd != nil {
		_ = r.cmd.Process.Kill()
		_ = r.cmd.Wait()
		r.cmd = nil
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "sh", "-c", r.command)
	cmd.Stdout = &out

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting capture command: %w", err)
	}

	r.cmd = cmd
	r.out = &out
	r.itemID = itemID
	return nil
}

// Stop interrupts the capture command, waits for it to exit, and
// returns the transcript it printed.
func (r *Recorder) Stop(_ context.Context, itemID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd == nil || r.itemID != itemID {
		return "", ErrNotRecording
	}

	cmd := r.cmd
	out := r.out
	r.cmd = nil
	r.out = nil
	r.itemID = ""

	// Ask the command to finish; most transcribers flush their output
	// on SIGINT. A command that already exited is fine.
	_ = cmd.Process.Signal(os.Interrupt)
	err := cmd.Wait()

	transcript := strings.TrimSpace(out.String())
	if transcript == "" && err != nil {
		return "", fmt.Errorf("capture command failed: %w", err)
	}

	return transcript, nil
}

// Cancel kills a capture in progress and discards its output.
func (r *Recorder) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cmd == nil {
		return
	}
	_ = r.cmd.Process.Kill()
	_ = r.cmd.Wait()
	r.cmd = nil
	r.out = nil
	r.itemID = ""
}
