package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"reversi/communication"
	"reversi/meta"
)

const reapTimeout = 2 * time.Second

// NewProcess starts argv and plays through its stdin and stdout. The process
// must greet back with hello before this returns.
func NewProcess(ctx context.Context, name string, argv []string) (*Remote, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("%w: empty command for player %q", meta.ErrConfiguration, name)
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", communication.ErrConnection, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", communication.ErrConnection, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %w", communication.ErrConnection, argv[0], err)
	}

	r := newRemote(name, communication.NewConn(stdout, stdin, &process{cmd: cmd, stdin: stdin}))

	hctx, cancel := handshakeTimeout(ctx)
	defer cancel()
	if err := r.Handshake(hctx); err != nil {
		_ = r.Close()
		return nil, err
	}
	return r, nil
}

// process closes the agent's stdin and reaps it, killing it if it lingers.
type process struct {
	cmd   *exec.Cmd
	stdin io.Closer
}

func (p *process) Close() error {
	_ = p.stdin.Close()

	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()

	select {
	case err := <-done:
		var exit *exec.ExitError
		if errors.As(err, &exit) {
			return nil
		}
		return err
	case <-time.After(reapTimeout):
		_ = p.cmd.Process.Kill()
		<-done
		return nil
	}
}
