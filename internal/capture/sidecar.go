package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrDeviceAccess is returned when the capture helper or one of its devices is unavailable
	ErrDeviceAccess = errors.New("device access failed")
	// ErrNotRunning is returned when a command is sent before Start or after Stop
	ErrNotRunning = errors.New("capture helper not running")
)

const stopTimeout = 2 * time.Second

// Command is a lifecycle instruction for the capture helper
type Command string

const (
	CmdStartPreview   Command = "start-preview"
	CmdStopPreview    Command = "stop-preview"
	CmdStartRecording Command = "start"
	CmdPauseRecording Command = "pause"
	CmdResume         Command = "resume"
	CmdStopRecording  Command = "stop"
)

const kindCommand Kind = "command"

type commandPayload struct {
	Command Command           `msgpack:"command"`
	Params  map[string]string `msgpack:"params,omitempty"`
}

// RecordingRequest selects the sources for a recording
type RecordingRequest struct {
	Screen     string
	Camera     string
	Microphone string
	OutputPath string
}

func (r RecordingRequest) params() map[string]string {
	p := map[string]string{"output": r.OutputPath}
	if r.Screen != "" {
		p["screen"] = r.Screen
	}
	if r.Camera != "" {
		p["camera"] = r.Camera
	}
	if r.Microphone != "" {
		p["microphone"] = r.Microphone
	}
	return p
}

// Sidecar runs the external capture helper. Commands go to its stdin and
// events come back on stdout, both as length-prefixed msgpack envelopes.
type Sidecar struct {
	binary string
	args   []string
	logger zerolog.Logger

	// Frames holds the newest preview frame
	Frames  FrameSlot
	metrics Latest[Metrics]

	handlerMu sync.RWMutex
	handler   func(Event)

	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	running bool
	wg      sync.WaitGroup
}

// NewSidecar creates a client for the helper binary
func NewSidecar(binary string, args []string, logger zerolog.Logger) *Sidecar {
	return &Sidecar{
		binary: binary,
		args:   args,
		logger: logger.With().Str("component", "capture").Logger(),
	}
}

// OnEvent registers the handler for recording and device events.
// Preview frames go to Frames and metrics are kept for Metrics.
func (s *Sidecar) OnEvent(fn func(Event)) {
	s.handlerMu.Lock()
	s.handler = fn
	s.handlerMu.Unlock()
}

// Metrics returns the latest metrics snapshot
func (s *Sidecar) Metrics() (Metrics, bool) {
	return s.metrics.Load()
}

// Running reports whether the helper is attached
func (s *Sidecar) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start launches the helper process
func (s *Sidecar) Start(ctx context.Context) error {
	path, err := exec.LookPath(s.binary)
	if err != nil {
		return fmt.Errorf("%w: capture helper %s: %v", ErrDeviceAccess, s.binary, err)
	}

	cmd := exec.CommandContext(ctx, path, s.args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start capture helper: %v", ErrDeviceAccess, err)
	}

	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()

	s.wg.Add(1)
	go s.logStderr(stderr)
	s.attach(stdout, stdin)

	s.logger.Info().Str("binary", path).Int("pid", cmd.Process.Pid).Msg("capture helper started")
	return nil
}

// attach starts reading events from r and sends commands to w
func (s *Sidecar) attach(r io.Reader, w io.WriteCloser) {
	s.mu.Lock()
	s.stdin = w
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := ReadEvents(r, s.dispatch, func(err error) {
			s.logger.Warn().Err(err).Msg("dropping capture event")
		})
		if err != nil {
			s.logger.Error().Err(err).Msg("capture event stream failed")
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()
}

func (s *Sidecar) dispatch(ev Event) {
	switch e := ev.(type) {
	case PreviewFrame:
		s.Frames.Put(e)
		return
	case Metrics:
		s.metrics.Store(e)
	case DeviceError:
		s.logger.Warn().Str("device", e.Device).Str("message", e.Message).Msg("device unavailable")
	}

	s.handlerMu.RLock()
	fn := s.handler
	s.handlerMu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}

func (s *Sidecar) logStderr(r io.Reader) {
	defer s.wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		s.logger.Debug().Str("source", "helper").Msg(scanner.Text())
	}
}

// Send writes one command to the helper
func (s *Sidecar) Send(cmd Command, params map[string]string) error {
	payload, err := msgpack.Marshal(commandPayload{Command: cmd, Params: params})
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}
	data, err := msgpack.Marshal(envelope{Kind: kindCommand, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal command envelope: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	if err := WriteMessage(s.stdin, data); err != nil {
		return fmt.Errorf("send %s: %w", cmd, err)
	}

	s.logger.Debug().Str("command", string(cmd)).Msg("command sent")
	return nil
}

// StartPreview asks for preview frames at fps
func (s *Sidecar) StartPreview(fps float64) error {
	return s.Send(CmdStartPreview, map[string]string{"fps": strconv.FormatFloat(fps, 'f', -1, 64)})
}

// StopPreview stops preview frames
func (s *Sidecar) StopPreview() error {
	return s.Send(CmdStopPreview, nil)
}

// StartRecording begins a recording
func (s *Sidecar) StartRecording(req RecordingRequest) error {
	if req.OutputPath == "" {
		return fmt.Errorf("recording output path is required")
	}
	return s.Send(CmdStartRecording, req.params())
}

// PauseRecording pauses the active recording
func (s *Sidecar) PauseRecording() error {
	return s.Send(CmdPauseRecording, nil)
}

// ResumeRecording resumes a paused recording
func (s *Sidecar) ResumeRecording() error {
	return s.Send(CmdResume, nil)
}

// StopRecording ends the active recording; the helper answers with RecordingStopped
func (s *Sidecar) StopRecording() error {
	return s.Send(CmdStopRecording, nil)
}

// Stop closes the helper's stdin and waits for it to exit, killing it after a timeout
func (s *Sidecar) Stop() error {
	s.mu.Lock()
	stdin := s.stdin
	cmd := s.cmd
	s.running = false
	s.mu.Unlock()

	if stdin != nil {
		stdin.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		if cmd != nil {
			cmd.Wait()
		}
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(stopTimeout):
		if cmd != nil && cmd.Process != nil {
			s.logger.Warn().Msg("capture helper did not exit, killing")
			if err := cmd.Process.Kill(); err != nil {
				return fmt.Errorf("kill capture helper: %w", err)
			}
		}
		return nil
	}
}
