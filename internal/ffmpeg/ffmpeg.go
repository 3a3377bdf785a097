package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// tailLines is how many trailing log lines a failed run reports
const tailLines = 8

// Executor runs ffmpeg and ffprobe for import, preview, export and compositing
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
}

// New resolves ffmpeg and ffprobe. binary may be a bare name or a path;
// ffprobe is looked up next to it.
func New(logger zerolog.Logger, binary string, threads int) (*Executor, error) {
	if binary == "" {
		binary = "ffmpeg"
	}

	ffmpegPath, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	probe := "ffprobe"
	if dir := filepath.Dir(binary); dir != "." {
		probe = filepath.Join(dir, "ffprobe")
	}
	ffprobePath, err := exec.LookPath(probe)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found: %w", err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     threads,
	}, nil
}

// encodeArgs prefixes opts with the flags every encode shares
func (e *Executor) encodeArgs(args []string) []string {
	base := []string{"-y", "-hide_banner", "-loglevel", "info", "-nostdin"}
	if e.threads > 0 {
		base = append(base, "-threads", strconv.Itoa(e.threads))
	}
	base = append(base, "-progress", "pipe:2")
	return append(base, args...)
}

// Run executes an encode, streaming progress and log lines to opts' handlers.
// A failed run reports the last lines ffmpeg printed.
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return fmt.Errorf("no arguments provided")
	}

	args := e.encodeArgs(opts.Args)
	e.logger.Debug().Strs("args", args).Msg("running ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	tail := &logTail{max: tailLines}
	parser := &progressParser{}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanLines(stderr, func(line string) {
			if p, done := parser.Feed(line); done {
				if opts.ProgressHandler != nil {
					opts.ProgressHandler(p)
				}
				return
			}
			if parser.InBlock() {
				return
			}
			tail.Add(line)
			if opts.LogHandler != nil {
				opts.LogHandler(line)
			}
		})
	}()
	go func() {
		defer wg.Done()
		scanLines(stdout, opts.LogHandler)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("ffmpeg exited: %w: %s", err, tail.String())
	}
	return nil
}

// output runs a query without progress flags and returns its combined output.
// A non-zero exit is not an error here; listing devices always exits 1.
func (e *Executor) output(ctx context.Context, args ...string) (string, error) {
	e.logger.Debug().Strs("args", args).Msg("querying ffmpeg")

	out, err := exec.CommandContext(ctx, e.ffmpegPath, append([]string{"-hide_banner"}, args...)...).CombinedOutput()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return "", fmt.Errorf("failed to run ffmpeg: %w", err)
	}
	return string(out), nil
}

func scanLines(r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if fn != nil {
			fn(scanner.Text())
		}
	}
}

// progressParser assembles the key=value blocks written by -progress
type progressParser struct {
	cur     Progress
	inBlock bool
}

// Feed consumes one line and returns a finished block when line closes one
func (p *progressParser) Feed(line string) (*Progress, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok || strings.ContainsAny(key, " \t") {
		p.inBlock = false
		return nil, false
	}
	p.inBlock = true

	switch key {
	case "frame":
		p.cur.Frame, _ = strconv.Atoi(value)
	case "fps":
		p.cur.FPS, _ = strconv.ParseFloat(value, 64)
	case "out_time_us":
		if us, err := strconv.ParseInt(value, 10, 64); err == nil {
			p.cur.Seconds = float64(us) / 1e6
		}
	case "out_time":
		p.cur.Time = value
	case "speed":
		p.cur.Speed = strings.TrimSpace(value)
	case "progress":
		done := p.cur
		p.cur = Progress{}
		p.inBlock = false
		if done.Frame == 0 && done.Seconds == 0 {
			return nil, false
		}
		return &done, true
	}
	return nil, false
}

// InBlock reports whether the last line belonged to a progress block
func (p *progressParser) InBlock() bool { return p.inBlock }

// logTail keeps the last max lines
type logTail struct {
	max   int
	lines []string
}

func (t *logTail) Add(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.max {
		t.lines = t.lines[len(t.lines)-t.max:]
	}
}

func (t *logTail) String() string {
	return strings.Join(t.lines, "; ")
}
