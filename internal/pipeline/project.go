package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/overlays"
	"github.com/keagan/clipforge/pkg/util"
)

// NewProject snapshots the store into a project
func NewProject(name string, store *clips.Store, pip overlays.Config) *Project {
	now := time.Now()
	return &Project{
		Version:   ProjectVersion,
		Name:      name,
		Clips:     store.Clips(),
		PiP:       pip,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SaveProject writes the project as YAML, creating the parent directory
func SaveProject(path string, p *Project) error {
	if p == nil {
		return fmt.Errorf("project cannot be nil")
	}
	if p.Version == 0 {
		p.Version = ProjectVersion
	}
	p.UpdatedAt = time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.UpdatedAt
	}

	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	if err := util.EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// LoadProject reads a YAML project. A missing or invalid PiP section falls back to the default.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project: %w", err)
	}
	if p.Version > ProjectVersion {
		return nil, fmt.Errorf("project version %d is newer than supported version %d", p.Version, ProjectVersion)
	}
	if p.PiP.Validate() != nil {
		p.PiP = overlays.DefaultConfig()
	}
	return &p, nil
}

// Apply loads the project's clips into store as one undoable edit
func (p *Project) Apply(store *clips.Store) error {
	if err := store.Replace(p.Clips); err != nil {
		return fmt.Errorf("failed to load clips: %w", err)
	}
	return nil
}
