// Package runner executes external power control commands attached to a
// pseudo-terminal. Output is read with a bounded readiness loop so a call
// never blocks past its timeout, and the pty pair and child process are
// released on every return path.
package runner

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/OpenCHAMI/powerctl/pkg/power"
	"github.com/creack/pty"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultSentinel is the line a power command prints once it is done
	// producing output. It only ends the read loop; success is still
	// decided by the exit status.
	DefaultSentinel = "Done"

	readSize = 4096
)

// Result holds the captured output of a finished command.
type Result struct {
	Output   []byte
	ExitCode int
}

// Runner runs commands through a pseudo-terminal. The zero value is usable
// and picks the defaults above. A Runner has no per-call state and may be
// shared between drivers.
type Runner struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Sentinel     string

	// OnLine is called for every complete line of output, in order.
	OnLine func(argv []string, line string)
}

// New creates a runner with the default timeout, poll interval and
// sentinel.
func New() *Runner {
	return &Runner{
		Timeout:      DefaultTimeout,
		PollInterval: DefaultPollInterval,
		Sentinel:     DefaultSentinel,
	}
}

// Execute() starts argv with stdout and stderr on the slave side of a new
// pty and reads the master side until the sentinel line shows up or the
// process exits. It then waits for the exit status.
//
// Returns the captured output if the process exited with status 0.
// Otherwise, returns an *power.ExecutionError carrying the output and exit
// code, or a timeout flag if the deadline passed first.
func (r *Runner) Execute(argv []string) (*Result, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, &power.ConfigurationError{Field: "command", Reason: "empty argument vector"}
	}

	deadline := time.Now().Add(r.timeout())

	ptmx, tty, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to allocate pseudo-terminal: %w", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = tty
	cmd.Stderr = tty
	// new session so a timeout can kill the whole process group
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	log.Debug().Strs("argv", argv).Msg("running command")
	if err := cmd.Start(); err != nil {
		return nil, &power.ExecutionError{
			Argv:     argv,
			Output:   []byte(err.Error()),
			ExitCode: 127,
		}
	}
	// the child holds its own copy of the slave side
	if err := tty.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close pseudo-terminal slave")
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
	}()

	fd := int(ptmx.Fd())
	if err := unix.SetNonblock(fd, true); err != nil {
		r.kill(cmd, exited)
		return nil, fmt.Errorf("failed to set pseudo-terminal non-blocking: %w", err)
	}

	out := &lineBuffer{sentinel: r.sentinel(), argv: argv, onLine: r.OnLine}
	var (
		waitErr  error
		finished bool
		eof      bool
	)

	for !finished && !out.sawSentinel && !eof {
		select {
		case waitErr = <-exited:
			finished = true
			// pick up whatever the child wrote before exiting
			drain(fd, out)
			continue
		default:
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			r.kill(cmd, exited)
			return nil, timeoutError(argv, out)
		}
		eof, err = poll(fd, out, minDuration(r.pollInterval(), remaining))
		if err != nil {
			r.kill(cmd, exited)
			return nil, fmt.Errorf("failed to read command output: %w", err)
		}
	}

	// after the sentinel the master is still read and the output dropped, so
	// a child writing more than the pty buffer holds can still exit
	for !finished {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			r.kill(cmd, exited)
			return nil, timeoutError(argv, out)
		}
		if eof {
			select {
			case waitErr = <-exited:
				finished = true
			case <-time.After(remaining):
				r.kill(cmd, exited)
				return nil, timeoutError(argv, out)
			}
			continue
		}
		select {
		case waitErr = <-exited:
			finished = true
			continue
		default:
		}
		eof, err = poll(fd, out, minDuration(r.pollInterval(), remaining))
		if err != nil {
			r.kill(cmd, exited)
			return nil, fmt.Errorf("failed to read command output: %w", err)
		}
	}
	out.flush()

	result := &Result{Output: out.bytes(), ExitCode: cmd.ProcessState.ExitCode()}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return nil, fmt.Errorf("failed to wait for command: %w", waitErr)
	}
	if result.ExitCode != 0 {
		return nil, &power.ExecutionError{Argv: argv, Output: result.Output, ExitCode: result.ExitCode}
	}
	log.Debug().Strs("argv", argv).Int("exit-code", result.ExitCode).Msg("command finished")
	return result, nil
}

// kill terminates the process group and reaps the child.
func (r *Runner) kill(cmd *exec.Cmd, exited <-chan error) {
	if cmd.Process == nil {
		return
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		_ = cmd.Process.Kill()
	}
	<-exited
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout <= 0 {
		return DefaultTimeout
	}
	return r.Timeout
}

func (r *Runner) pollInterval() time.Duration {
	if r.PollInterval <= 0 {
		return DefaultPollInterval
	}
	return r.PollInterval
}

func (r *Runner) sentinel() string {
	if r.Sentinel == "" {
		return DefaultSentinel
	}
	return r.Sentinel
}

// poll waits up to d for the master side to become readable and reads what
// is available. It reports eof once the slave side has been closed by
// every process holding it.
func poll(fd int, out *lineBuffer, d time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(d/time.Millisecond))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return false, nil
		}
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) == 0 {
		return false, nil
	}
	return read(fd, out)
}

// drain reads until nothing is left without waiting.
func drain(fd int, out *lineBuffer) {
	if _, err := read(fd, out); err != nil {
		log.Debug().Err(err).Msg("failed to drain command output")
	}
}

func read(fd int, out *lineBuffer) (bool, error) {
	buf := make([]byte, readSize)
	for {
		n, err := unix.Read(fd, buf)
		if n > 0 {
			out.write(buf[:n])
		}
		switch {
		case err == nil && n == 0:
			return true, nil
		case err == nil:
			continue
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			return false, nil
		case errors.Is(err, unix.EIO):
			// linux reports a closed slave side as EIO
			return true, nil
		default:
			return false, err
		}
	}
}

func timeoutError(argv []string, out *lineBuffer) error {
	out.flush()
	return &power.ExecutionError{Argv: argv, Output: out.bytes(), ExitCode: -1, Timeout: true}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// lineBuffer splits pty output into lines and watches for the sentinel.
type lineBuffer struct {
	sentinel    string
	argv        []string
	onLine      func(argv []string, line string)
	pending     []byte
	lines       []string
	sawSentinel bool
}

// write splits p into lines. Everything after the sentinel line is
// dropped.
func (b *lineBuffer) write(p []byte) {
	if b.sawSentinel {
		return
	}
	b.pending = append(b.pending, p...)
	for !b.sawSentinel {
		i := bytes.IndexByte(b.pending, '\n')
		if i < 0 {
			return
		}
		b.add(string(b.pending[:i]))
		b.pending = b.pending[i+1:]
	}
	b.pending = nil
}

func (b *lineBuffer) flush() {
	if len(b.pending) > 0 {
		b.add(string(b.pending))
		b.pending = nil
	}
}

func (b *lineBuffer) add(line string) {
	// the terminal line discipline turns \n into \r\n
	line = strings.TrimRight(line, "\r")
	b.lines = append(b.lines, line)
	if line == b.sentinel {
		b.sawSentinel = true
	}
	if b.onLine != nil {
		b.onLine(b.argv, line)
	}
}

func (b *lineBuffer) bytes() []byte {
	return []byte(strings.Join(b.lines, "\n"))
}
