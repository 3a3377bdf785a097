package util

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00:00.000"},
		{1500 * time.Millisecond, "00:00:01.500"},
		{61 * time.Second, "00:01:01.000"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03.000"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{9.9, "0:09"},
		{75, "1:15"},
		{3725, "1:02:05"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"45.5", 45.5, false},
		{"1:30", 90, false},
		{"01:00:02.5", 3602.5, false},
		{" 3 ", 3, false},
		{"", 0, true},
		{"a:b", 0, true},
		{"1:2:3:4", 0, true},
		{"-2", 0, true},
		{"NaN", 0, true},
		{"Inf", 0, true},
		{"1:+Inf", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSeconds(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeconds(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeconds(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseFrameRate(t *testing.T) {
	if got := ParseFrameRate("30/1"); got != 30 {
		t.Errorf("got %v", got)
	}
	if got := ParseFrameRate("30/0"); got != 0 {
		t.Errorf("zero denominator should give 0, got %v", got)
	}
	if got := ParseFrameRate("bogus"); got != 0 {
		t.Errorf("got %v", got)
	}
}

func TestSeconds(t *testing.T) {
	if got := Seconds(1.25); got != 1250*time.Millisecond {
		t.Errorf("Seconds(1.25) = %v", got)
	}
}

func TestHasExtension(t *testing.T) {
	if !HasExtension("/a/B.MOV", ".mp4", ".mov") {
		t.Error("expected case-insensitive match")
	}
	if HasExtension("/a/b.mkv", ".mp4", ".mov") {
		t.Error("unexpected match")
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	if err := os.WriteFile(src, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "nested", "dst.bin")
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil || string(data) != "payload" {
		t.Errorf("copied content = %q, %v", data, err)
	}
	if !FileExists(dst) {
		t.Error("FileExists reported false")
	}
}
