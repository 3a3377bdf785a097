package prefs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/keagan/clipforge/internal/overlays"
	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prefs", "prefs.db")
	s, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpenWALEnabled(t *testing.T) {
	s, _ := openTestStore(t)

	var journalMode string
	if err := s.conn.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode error = %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %s, want wal", journalMode)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	s, path := openTestStore(t)
	s.Close()

	again, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	defer again.Close()

	var count int
	if err := again.conn.QueryRow("SELECT COUNT(*) FROM _migrations").Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("migrations recorded %d times, want 1", count)
	}
}

func TestPreviewRateDefaultAndClamp(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	if got := s.PreviewRate(ctx); got != DefaultPreviewRate {
		t.Errorf("default rate = %v, want %v", got, DefaultPreviewRate)
	}

	tests := []struct {
		in, want float64
	}{
		{4, 4},
		{0.1, MinPreviewRate},
		{25, MaxPreviewRate},
		{0.5, 0.5},
	}
	for _, tt := range tests {
		written, err := s.SetPreviewRate(ctx, tt.in)
		if err != nil {
			t.Fatalf("SetPreviewRate(%v): %v", tt.in, err)
		}
		if written != tt.want {
			t.Errorf("SetPreviewRate(%v) wrote %v, want %v", tt.in, written, tt.want)
		}
		if got := s.PreviewRate(ctx); got != tt.want {
			t.Errorf("PreviewRate after %v = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPreviewRatePersistsAcrossReopen(t *testing.T) {
	s, path := openTestStore(t)
	ctx := context.Background()
	if _, err := s.SetPreviewRate(ctx, 7.5); err != nil {
		t.Fatal(err)
	}
	s.Close()

	again, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer again.Close()
	if got := again.PreviewRate(ctx); got != 7.5 {
		t.Errorf("PreviewRate = %v, want 7.5", got)
	}
}

func TestPreviewRateCorruptValue(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()
	if err := s.set(ctx, keyPreviewRate, "fast"); err != nil {
		t.Fatal(err)
	}
	if got := s.PreviewRate(ctx); got != DefaultPreviewRate {
		t.Errorf("PreviewRate = %v, want default", got)
	}
}

func TestPiPConfigRoundTrip(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	if got := s.PiPConfig(ctx); got != overlays.DefaultConfig() {
		t.Errorf("default config = %+v", got)
	}

	cfg := overlays.Config{
		Position:  overlays.TopLeft,
		Size:      overlays.Large,
		CameraRef: "cam-1",
	}
	if err := s.SetPiPConfig(ctx, cfg); err != nil {
		t.Fatalf("SetPiPConfig: %v", err)
	}
	if got := s.PiPConfig(ctx); got != cfg {
		t.Errorf("PiPConfig = %+v, want %+v", got, cfg)
	}
}

func TestPiPConfigFallsBackToDefault(t *testing.T) {
	s, _ := openTestStore(t)
	ctx := context.Background()

	for _, raw := range []string{
		"{not json",
		`{"position":"center","size":"medium"}`,
		`{"position":"top-left","size":"huge"}`,
	} {
		if err := s.set(ctx, keyPiPConfig, raw); err != nil {
			t.Fatal(err)
		}
		if got := s.PiPConfig(ctx); got != overlays.DefaultConfig() {
			t.Errorf("PiPConfig(%q) = %+v, want default", raw, got)
		}
	}
}

func TestSetPiPConfigRejectsInvalid(t *testing.T) {
	s, _ := openTestStore(t)
	err := s.SetPiPConfig(context.Background(), overlays.Config{Position: "middle", Size: overlays.Small})
	if err == nil {
		t.Error("expected invalid config to be rejected")
	}
}
