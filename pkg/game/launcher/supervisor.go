package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

/////////////////////////////////////////////////////////////////////
// Supervisor
/////////////////////////////////////////////////////////////////////

// ErrAlreadyRunning is returned by Start while a previous game process is
// still alive. Launches are never queued.
var ErrAlreadyRunning = errors.New("a game process is already running")

// StartError wraps the OS-level failure to spawn the process.
type StartError struct {
	Cause error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start game process: %v", e.Cause)
}

func (e *StartError) Unwrap() error { return e.Cause }

// OutputSink receives one line of merged process output at a time.
type OutputSink func(line string)

// Supervisor owns at most one live game process. Start, IsRunning, Wait
// and Stop all synchronize on one internal lock.
type Supervisor struct {
	// Grace is how long Stop waits after the graceful termination
	// request before killing.
	Grace time.Duration

	logger *log.Logger

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

func NewSupervisor(logger *log.Logger) *Supervisor {
	if logger == nil {
		logger = log.Default()
	}
	return &Supervisor{Grace: 5 * time.Second, logger: logger}
}

// Start spawns the command with stdout and stderr merged and feeds every
// output line to sink until the stream closes. It fails with
// ErrAlreadyRunning while a previous process is alive and with StartError
// when the OS cannot spawn the process.
func (s *Supervisor) Start(command []string, sink OutputSink, workDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runningLocked() {
		return ErrAlreadyRunning
	}
	if len(command) == 0 || command[0] == "" {
		return &StartError{Cause: errors.New("empty command")}
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = workDir
	setProcAttributes(cmd)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		return &StartError{Cause: err}
	}

	s.cmd = cmd
	s.done = make(chan struct{})
	s.err = nil
	s.logger.Info("game process started", "pid", cmd.Process.Pid)

	go s.forwardOutput(pr, sink)
	go s.reap(cmd, pw)

	return nil
}

// maxLineBytes bounds how much of one output line is accumulated before
// it is forwarded in pieces.
const maxLineBytes = 1024 * 1024

func (s *Supervisor) forwardOutput(r io.Reader, sink OutputSink) {
	// Game log lines can get long (stack traces, chat json); a line past
	// maxLineBytes reaches the sink in pieces. The stream is always
	// consumed to EOF, otherwise the exec copy goroutine blocks on the
	// pipe and Wait never returns.
	br := bufio.NewReaderSize(r, 64*1024)
	var line []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		line = append(line, chunk...)

		switch {
		case err != nil:
			if len(line) > 0 && sink != nil {
				sink(string(line))
			}
			return
		case isPrefix && len(line) < maxLineBytes:
			continue
		default:
			if sink != nil {
				sink(string(line))
			}
			line = line[:0]
		}
	}
}

func (s *Supervisor) reap(cmd *exec.Cmd, pw *io.PipeWriter) {
	werr := cmd.Wait()
	pw.Close()

	s.mu.Lock()
	s.err = werr
	close(s.done)
	s.mu.Unlock()

	var exit *exec.ExitError
	switch {
	case errors.As(werr, &exit):
		s.logger.Warn("game process exited", "code", exit.ExitCode())
	case werr != nil:
		s.logger.Error("game process failed", "err", werr)
	default:
		s.logger.Info("game process exited cleanly")
	}
}

// IsRunning reports whether a process is currently alive, without
// blocking.
func (s *Supervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningLocked()
}

// Pid is the live process id, 0 when nothing runs.
func (s *Supervisor) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.runningLocked() {
		return 0
	}
	return s.cmd.Process.Pid
}

func (s *Supervisor) runningLocked() bool {
	if s.cmd == nil {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Wait blocks until the current process exits or ctx is cancelled, and
// returns the process error (nil for a clean exit). With no process ever
// started it returns immediately.
func (s *Supervisor) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Stop asks the process to exit, waits for the grace period, then kills
// it. It returns only once the process is confirmed dead; stopping an
// idle supervisor is a no-op.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if !s.runningLocked() {
		s.mu.Unlock()
		return nil
	}
	proc := s.cmd.Process
	done := s.done
	grace := s.Grace
	s.mu.Unlock()

	s.logger.Info("stopping game process", "pid", proc.Pid)
	if err := terminate(proc); err != nil {
		s.logger.Debug("graceful termination request failed", "err", err)
	}

	select {
	case <-done:
		return nil
	case <-time.After(grace):
	}

	s.logger.Warn("game process ignored termination request, killing", "pid", proc.Pid)
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to kill game process: %w", err)
	}
	<-done
	return nil
}
