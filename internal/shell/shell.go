package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/editor"
	"github.com/keagan/clipforge/internal/frameloop"
	"github.com/keagan/clipforge/internal/media"
	"github.com/keagan/clipforge/internal/overlays"
	"github.com/keagan/clipforge/internal/pipeline"
)

// TickInterval is how often the shell advances playback while it waits for input
const TickInterval = time.Second / 30

// Exporter renders a timeline to a file
type Exporter interface {
	Export(ctx context.Context, timeline []clips.Clip, opts pipeline.ExportOptions) error
}

// Shell is an interactive line editor for a timeline
type Shell struct {
	shared   *editor.Shared
	importer *media.Importer
	exporter Exporter
	pip      overlays.Config
	out      io.Writer
	logger   zerolog.Logger
}

// Options configures optional shell capabilities
type Options struct {
	Importer *media.Importer
	Exporter Exporter
	PiP      overlays.Config
	Out      io.Writer
}

// New creates a shell over a shared session
func New(shared *editor.Shared, opts Options, logger zerolog.Logger) *Shell {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	pip := opts.PiP
	if pip.Validate() != nil {
		pip = overlays.DefaultConfig()
	}
	return &Shell{
		shared:   shared,
		importer: opts.Importer,
		exporter: opts.Exporter,
		pip:      pip,
		out:      out,
		logger:   logger.With().Str("component", "shell").Logger(),
	}
}

// Completer lists the shell's commands for tab completion
func (sh *Shell) Completer() readline.AutoCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, c := range commands {
		if c.name == "pip" {
			items = append(items, readline.PcItem("pip",
				readline.PcItem(string(overlays.TopLeft)),
				readline.PcItem(string(overlays.TopRight)),
				readline.PcItem(string(overlays.BottomLeft)),
				readline.PcItem(string(overlays.BottomRight)),
			))
			continue
		}
		items = append(items, readline.PcItem(c.name))
	}
	return readline.NewPrefixCompleter(items...)
}

// Run reads commands until exit, EOF or interrupt. Playback advances in the
// background while the shell waits for input.
func (sh *Shell) Run(ctx context.Context) error {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".clipforge_history")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "clipforge> ",
		HistoryFile:     historyFile,
		AutoComplete:    sh.Completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize readline: %w", err)
	}
	defer rl.Close()

	ticker := frameloop.New(TickInterval, func() { sh.shared.Step(TickInterval) }, frameloop.RealScheduler)
	ticker.Enable()
	defer ticker.Disable()

	sh.printf("clipforge shell. Type help for commands.\n")
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		input, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !sh.HandleCommand(ctx, input) {
			return nil
		}
	}
}

func (sh *Shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format, args...)
}
