package pipeline

import (
	"time"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/ffmpeg"
	"github.com/keagan/clipforge/internal/overlays"
)

// ProjectVersion is the current project file format
const ProjectVersion = 1

// Project is a saved editing session
type Project struct {
	Version   int             `yaml:"version"`
	Name      string          `yaml:"name"`
	Clips     []clips.Clip    `yaml:"clips"`
	PiP       overlays.Config `yaml:"pip"`
	Playhead  float64         `yaml:"playhead"`
	Zoom      float64         `yaml:"zoom,omitempty"`
	CreatedAt time.Time       `yaml:"created_at"`
	UpdatedAt time.Time       `yaml:"updated_at"`
}

// ExportOptions configures a timeline export
type ExportOptions struct {
	Output       string
	Preset       string
	ProgressFunc ffmpeg.ProgressFunc
}

// PiPRecording is a finished screen and camera recording pair
type PiPRecording struct {
	ScreenPath string
	CameraPath string
	Output     string
	Config     overlays.Config
}

// PiPResult reports where the finished recording went
type PiPResult struct {
	Output     string
	Composited bool
	// CompositeErr wraps ffmpeg.ErrComposite when the screen recording was kept as is
	CompositeErr error
}

// Config holds pipeline-specific configuration
type Config struct {
	TempDir string
	Preset  string
}
