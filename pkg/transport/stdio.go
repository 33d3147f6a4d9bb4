package transport

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mcpkit-go/mcpkit/pkg/frame"
	"github.com/mcpkit-go/mcpkit/pkg/logfilter"
	"github.com/mcpkit-go/mcpkit/pkg/observability"
)

const stdioScannerBuffer = 1024 * 1024

// StdioTransport owns a child MCP server's stdin/stdout pipes, applying the
// framing codec on send and framing-reassembly-then-log-filter on receive.
type StdioTransport struct {
	Command string
	Args    []string
	Env     []string // additional KEY=VALUE entries appended to the child's environment

	// Stdin/Stdout let a caller hand in pre-spawned pipes instead of
	// Connect spawning a child process (e.g. a server under test).
	Stdin  io.WriteCloser
	Stdout io.ReadCloser

	Logger  *slog.Logger
	Metrics *observability.Metrics

	process  *exec.Cmd
	ownsProc bool

	filter      *logfilter.Filter
	reassembler *frame.Reassembler

	sendMu    sync.Mutex
	writeFail atomic.Bool

	recvCh chan []byte
	errCh  chan error

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewStdioTransport spawns command/args on Connect, applying logMode to
// interleaved non-JSON-RPC output.
func NewStdioTransport(command string, args []string, logMode logfilter.Mode, logger *slog.Logger) *StdioTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &StdioTransport{
		Command:     command,
		Args:        args,
		Logger:      logger,
		filter:      logfilter.New(logMode),
		reassembler: frame.NewReassembler(),
		recvCh:      make(chan []byte, 64),
		errCh:       make(chan error, 1),
	}
}

func (t *StdioTransport) Connect(ctx context.Context) error {
	if t.Stdin == nil && t.Stdout == nil {
		t.process = exec.CommandContext(ctx, t.Command, t.Args...)
		t.process.Env = append(t.process.Environ(), t.Env...)

		stdin, err := t.process.StdinPipe()
		if err != nil {
			return newError(KindConnectionFail, fmt.Errorf("stdin pipe: %w", err))
		}
		stdout, err := t.process.StdoutPipe()
		if err != nil {
			return newError(KindConnectionFail, fmt.Errorf("stdout pipe: %w", err))
		}
		stderr, err := t.process.StderrPipe()
		if err != nil {
			return newError(KindConnectionFail, fmt.Errorf("stderr pipe: %w", err))
		}

		if err := t.process.Start(); err != nil {
			return newError(KindConnectionFail, fmt.Errorf("start %s: %w", t.Command, err))
		}

		t.Stdin = stdin
		t.Stdout = stdout
		t.ownsProc = true

		t.wg.Add(1)
		go t.stderrLoop(stderr)
	}

	t.wg.Add(1)
	go t.receiveLoop()

	return nil
}

func (t *StdioTransport) Send(ctx context.Context, message []byte) error {
	if t.writeFail.Load() {
		return newError(KindNotConnected, fmt.Errorf("previous write failed, transport is terminal"))
	}
	if t.Stdin == nil {
		return newError(KindNotConnected, fmt.Errorf("not connected"))
	}

	id := uuid.NewString()
	lines := frame.Chunk(id, message)

	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	for _, line := range lines {
		if _, err := io.WriteString(t.Stdin, line); err != nil {
			t.writeFail.Store(true)
			wrapped := newError(KindNetworkError, fmt.Errorf("write to child stdin: %w", err))
			t.emitErr(wrapped)
			return wrapped
		}
	}
	return nil
}

func (t *StdioTransport) Receive() <-chan []byte { return t.recvCh }

func (t *StdioTransport) Errors() <-chan error { return t.errCh }

func (t *StdioTransport) Disconnect() error {
	var err error
	t.closeOnce.Do(func() {
		if t.Stdin != nil {
			_ = t.Stdin.Close()
		}
		if t.ownsProc && t.process != nil {
			if waitErr := t.process.Wait(); waitErr != nil {
				t.Logger.Debug("stdio transport: child process exited with error", "error", waitErr)
			}
		}
		t.wg.Wait()
		close(t.recvCh)
	})
	return err
}

func (t *StdioTransport) receiveLoop() {
	defer t.wg.Done()

	scanner := bufio.NewScanner(t.Stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), stdioScannerBuffer)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		f, err := frame.Parse(line)
		if err != nil {
			// scanner.Bytes() aliases the scanner's internal buffer, which
			// the next Scan() overwrites; Admit returns that same slice
			// verbatim on the passthrough path, so it must be copied
			// before it can sit on the buffered recvCh.
			if admitted, ok := t.filter.Admit(line); ok {
				t.deliver(bytes.Clone(admitted))
			}
			continue
		}

		reassembled, ok := t.reassembler.Feed(f)
		if !ok {
			continue
		}
		if admitted, ok := t.filter.Admit(reassembled); ok {
			t.deliver(admitted)
		}
	}

	if err := scanner.Err(); err != nil {
		t.emitErr(newError(KindNetworkError, fmt.Errorf("read child stdout: %w", err)))
	}
}

func (t *StdioTransport) stderrLoop(stderr io.ReadCloser) {
	defer t.wg.Done()
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		t.Logger.Warn("stdio transport: child stderr", "line", scanner.Text())
	}
}

func (t *StdioTransport) deliver(msg []byte) {
	select {
	case t.recvCh <- msg:
	default:
		t.Logger.Warn("stdio transport: receive channel full, dropping message")
	}
}

func (t *StdioTransport) emitErr(err error) {
	select {
	case t.errCh <- err:
	default:
	}
}
