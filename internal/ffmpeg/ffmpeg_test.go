package ffmpeg

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/keagan/clipforge/internal/capture"
	"github.com/keagan/clipforge/internal/overlays"
	"github.com/rs/zerolog"
)

// getTestDataPath returns the path to the overlay geometry vectors
func getTestDataPath(filename string) string {
	return filepath.Join("..", "overlays", "testdata", filename)
}

// skipIfNoFFmpeg skips the test if ffmpeg is not available
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
}

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	skipIfNoFFmpeg(t)
	e, err := New(zerolog.Nop(), "ffmpeg", 2)
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}
	return e
}

// generateVideo renders a lavfi test pattern into dir
func generateVideo(t *testing.T, e *Executor, dir, name string, width, height int, seconds float64) string {
	t.Helper()
	out := filepath.Join(dir, name)
	err := e.Run(t.Context(), RunOptions{Args: []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("testsrc=size=%dx%d:rate=30:duration=%g", width, height, seconds),
		"-f", "lavfi",
		"-i", fmt.Sprintf("sine=frequency=440:duration=%g", seconds),
		"-c:v", DefaultVideoCodec,
		"-preset", FastPreset,
		"-pix_fmt", "yuv420p",
		"-c:a", DefaultAudioCodec,
		"-shortest",
		out,
	}})
	if err != nil {
		t.Fatalf("failed to generate %s: %v", name, err)
	}
	return out
}

func TestFilterBuilder(t *testing.T) {
	got := NewFilterBuilder().Scale(346, 194).Overlay(1554, 866).Build()
	want := "scale=346:194,overlay=1554:866"
	if got != want {
		t.Errorf("Build() = %q, want %q", got, want)
	}
}

func TestFilterBuilderEmpty(t *testing.T) {
	if got := NewFilterBuilder().Scale(0, 100).ScaleWidth(-1).Build(); got != "" {
		t.Errorf("expected invalid filters to be skipped, got %q", got)
	}
}

func TestCompositeFilterMatchesGeometryVectors(t *testing.T) {
	vectors, err := overlays.LoadVectors(getTestDataPath("geometry_golden.yaml"))
	if err != nil {
		t.Fatalf("failed to load vectors: %v", err)
	}

	for _, v := range vectors {
		t.Run(v.Name, func(t *testing.T) {
			graph, rect := CompositeFilter(CompositeOptions{
				Config:          v.Config(),
				PrimaryWidth:    v.Container[0],
				PrimaryHeight:   v.Container[1],
				SecondaryWidth:  v.Source[0],
				SecondaryHeight: v.Source[1],
			})
			if rect != v.Want {
				t.Fatalf("rect = %+v, want %+v", rect, v.Want)
			}
			want := fmt.Sprintf("[1:v]scale=%d:%d[pip];[0:v][pip]overlay=%d:%d[v]",
				v.Want.W, v.Want.H, v.Want.X, v.Want.Y)
			if graph != want {
				t.Errorf("graph = %q, want %q", graph, want)
			}
		})
	}
}

func TestCompositeArgsAudio(t *testing.T) {
	opts := CompositeOptions{
		Primary:         "screen.mp4",
		Secondary:       "camera.mp4",
		Output:          "out.mp4",
		Config:          overlays.DefaultConfig(),
		PrimaryWidth:    1920,
		PrimaryHeight:   1080,
		SecondaryWidth:  1280,
		SecondaryHeight: 720,
	}

	opts.Config.IncludeAudio = true
	args := strings.Join(compositeArgs(opts), " ")
	if !strings.Contains(args, "-map 0:a?") {
		t.Errorf("expected primary audio mapping, got %q", args)
	}

	opts.Config.IncludeAudio = false
	args = strings.Join(compositeArgs(opts), " ")
	if !strings.Contains(args, "-an") || strings.Contains(args, "0:a?") {
		t.Errorf("expected audio to be dropped, got %q", args)
	}
	if !strings.HasSuffix(args, "out.mp4") {
		t.Errorf("output must be the last argument, got %q", args)
	}
}

func TestCompositeValidation(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}
	err := e.Composite(t.Context(), CompositeOptions{Primary: "a.mp4"})
	if !errors.Is(err, ErrComposite) {
		t.Errorf("expected ErrComposite, got %v", err)
	}
}

func TestExtractArgs(t *testing.T) {
	args, err := extractArgs("in.mp4", ClipOptions{
		Start:  1500 * time.Millisecond,
		End:    4 * time.Second,
		Output: "seg.mp4",
		Preset: FastPreset,
	})
	if err != nil {
		t.Fatalf("extractArgs: %v", err)
	}

	want := []string{
		"-i", "in.mp4",
		"-ss", "00:00:01.500",
		"-t", "00:00:02.500",
		"-c:v", DefaultVideoCodec,
		"-preset", FastPreset,
		"-crf", "23",
		"-c:a", DefaultAudioCodec,
		"seg.mp4",
	}
	if strings.Join(args, " ") != strings.Join(want, " ") {
		t.Errorf("args = %v\nwant %v", args, want)
	}
}

func TestExtractArgsScale(t *testing.T) {
	args, err := extractArgs("in.mp4", ClipOptions{End: time.Second, Output: "seg.mp4", Width: 1280, Height: 720})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(strings.Join(args, " "), "-vf scale=1280:720 -c:v") {
		t.Errorf("expected scale filter before the codec, got %v", args)
	}

	args, _ = extractArgs("in.mp4", ClipOptions{End: time.Second, Output: "seg.mp4", Width: 1280, Height: 720, CopyCodec: true})
	if strings.Contains(strings.Join(args, " "), "scale") {
		t.Errorf("stream copy cannot scale, got %v", args)
	}
}

func TestExtractArgsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts ClipOptions
	}{
		{"end before start", ClipOptions{Start: 2 * time.Second, End: time.Second, Output: "x.mp4"}},
		{"zero length", ClipOptions{Start: time.Second, End: time.Second, Output: "x.mp4"}},
		{"no output", ClipOptions{End: time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := extractArgs("in.mp4", tt.opts); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestConcatArgs(t *testing.T) {
	copyArgs := strings.Join(concatArgs("list.txt", ConcatOptions{Output: "out.mp4"}), " ")
	if copyArgs != "-f concat -safe 0 -i list.txt -c copy out.mp4" {
		t.Errorf("unexpected stream copy args: %q", copyArgs)
	}

	encode := strings.Join(concatArgs("list.txt", ConcatOptions{Output: "out.mp4", ReEncode: true}), " ")
	if !strings.Contains(encode, "-preset "+DefaultPreset) || strings.Contains(encode, "-c copy") {
		t.Errorf("unexpected re-encode args: %q", encode)
	}
}

func TestConcatEntryEscapesQuotes(t *testing.T) {
	got := concatEntry("/tmp/it's here.mp4")
	want := `file '/tmp/it'\''s here.mp4'`
	if got != want {
		t.Errorf("concatEntry = %q, want %q", got, want)
	}
}

func TestConcatValidation(t *testing.T) {
	e := &Executor{logger: zerolog.Nop()}
	if err := e.Concat(t.Context(), ConcatOptions{Output: "out.mp4"}); err == nil {
		t.Error("expected error for empty inputs")
	}
	if err := e.Concat(t.Context(), ConcatOptions{Inputs: []string{"a.mp4"}}); err == nil {
		t.Error("expected error for empty output")
	}
}

func TestThumbnailArgs(t *testing.T) {
	got := strings.Join(thumbnailArgs("in.mp4", 2*time.Second, "thumb.jpg"), " ")
	want := "-ss 00:00:02.000 -i in.mp4 -vframes 1 -vf scale=320:-1 -q:v 2 thumb.jpg"
	if got != want {
		t.Errorf("thumbnailArgs = %q, want %q", got, want)
	}
}

func TestParseProbe(t *testing.T) {
	output := []byte(`{
		"format": {"duration": "12.500000", "bit_rate": "2000000", "size": "3125000"},
		"streams": [
			{"codec_type": "audio", "codec_name": "aac"},
			{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "r_frame_rate": "30000/1001"},
			{"codec_type": "video", "codec_name": "mjpeg", "width": 320, "height": 180, "r_frame_rate": "90000/1"}
		]
	}`)

	info, err := parseProbe("clip.mp4", output)
	if err != nil {
		t.Fatalf("parseProbe: %v", err)
	}
	if info.Duration != 12500*time.Millisecond {
		t.Errorf("duration = %v", info.Duration)
	}
	if info.Width != 1920 || info.Height != 1080 || info.VideoCodec != "h264" {
		t.Errorf("expected the first video stream, got %dx%d %s", info.Width, info.Height, info.VideoCodec)
	}
	if info.FPS < 29.96 || info.FPS > 29.98 {
		t.Errorf("fps = %f", info.FPS)
	}
	if !info.HasAudio || info.AudioCodec != "aac" {
		t.Errorf("audio not detected: %+v", info)
	}
	if info.FileSize != 3125000 || info.Bitrate != 2000000 {
		t.Errorf("size/bitrate = %d/%d", info.FileSize, info.Bitrate)
	}
}

func TestParseProbeNoVideo(t *testing.T) {
	output := []byte(`{"format": {"duration": "3.0"}, "streams": [{"codec_type": "audio", "codec_name": "mp3"}]}`)
	if _, err := parseProbe("song.mp3", output); err == nil {
		t.Error("expected an error for a file without video")
	}
	if _, err := parseProbe("junk", []byte("not json")); err == nil {
		t.Error("expected an error for malformed output")
	}
}

const avfoundationListing = `[AVFoundation indev @ 0x7f9] AVFoundation video devices:
[AVFoundation indev @ 0x7f9] [0] FaceTime HD Camera
[AVFoundation indev @ 0x7f9] [1] Capture screen 0
[AVFoundation indev @ 0x7f9] [2] Capture screen 1
[AVFoundation indev @ 0x7f9] AVFoundation audio devices:
[AVFoundation indev @ 0x7f9] [0] MacBook Pro Microphone
[AVFoundation indev @ 0x7f9] [1] External [USB] Mic
[in#0 @ 0x7fa] Error opening input: Input/output error
`

func TestParseDeviceList(t *testing.T) {
	d := parseDeviceList(avfoundationListing)

	if len(d.Cameras) != 1 || d.Cameras[0].Name != "FaceTime HD Camera" || d.Cameras[0].Index != 0 {
		t.Errorf("cameras = %+v", d.Cameras)
	}
	if len(d.Screens) != 2 || d.Screens[1].Index != 2 || d.Screens[1].Kind != DeviceScreen {
		t.Errorf("screens = %+v", d.Screens)
	}
	if len(d.Microphones) != 2 || d.Microphones[1].Name != "External [USB] Mic" {
		t.Errorf("microphones = %+v", d.Microphones)
	}
}

func TestParseDeviceListEmpty(t *testing.T) {
	if d := parseDeviceList("Unknown input format: 'avfoundation'\n"); !d.Empty() {
		t.Errorf("expected no devices, got %+v", d)
	}
}

func TestExecutorCreation(t *testing.T) {
	e := newTestExecutor(t)
	if e.ffmpegPath == "" || e.ffprobePath == "" {
		t.Errorf("paths not resolved: %q %q", e.ffmpegPath, e.ffprobePath)
	}
}

func TestExecutorMissingBinary(t *testing.T) {
	if _, err := New(zerolog.Nop(), "/nonexistent/ffmpeg", 0); err == nil {
		t.Error("expected an error for a missing binary")
	}
}

func TestProbeVideoInvalidFile(t *testing.T) {
	e := newTestExecutor(t)
	if _, err := e.ProbeVideo(t.Context(), "/nonexistent/file.mp4"); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestExtractConcatRoundTrip(t *testing.T) {
	e := newTestExecutor(t)
	dir := t.TempDir()
	src := generateVideo(t, e, dir, "src.mp4", 320, 240, 3)

	first := filepath.Join(dir, "a.mp4")
	second := filepath.Join(dir, "b.mp4")
	for _, seg := range []struct {
		out        string
		start, end time.Duration
	}{
		{first, 0, time.Second},
		{second, 2 * time.Second, 3 * time.Second},
	} {
		err := e.ExtractClip(t.Context(), src, ClipOptions{Start: seg.start, End: seg.end, Output: seg.out, Preset: FastPreset})
		if err != nil {
			t.Fatalf("ExtractClip: %v", err)
		}
	}

	out := filepath.Join(dir, "joined.mp4")
	if err := e.Concat(t.Context(), ConcatOptions{Inputs: []string{first, second}, Output: out}); err != nil {
		t.Fatalf("Concat: %v", err)
	}

	info, err := e.ProbeVideo(t.Context(), out)
	if err != nil {
		t.Fatalf("ProbeVideo: %v", err)
	}
	if info.Duration < 1800*time.Millisecond || info.Duration > 2300*time.Millisecond {
		t.Errorf("joined duration = %v, want about 2s", info.Duration)
	}
}

func TestCompositeProducesContainerSize(t *testing.T) {
	e := newTestExecutor(t)
	dir := t.TempDir()
	screen := generateVideo(t, e, dir, "screen.mp4", 640, 360, 1)
	camera := generateVideo(t, e, dir, "camera.mp4", 320, 240, 1)

	out := filepath.Join(dir, "pip.mp4")
	err := e.Composite(t.Context(), CompositeOptions{
		Primary:   screen,
		Secondary: camera,
		Output:    out,
		Config:    overlays.DefaultConfig(),
	})
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}

	info, err := e.ProbeVideo(t.Context(), out)
	if err != nil {
		t.Fatalf("ProbeVideo: %v", err)
	}
	if info.Width != 640 || info.Height != 360 {
		t.Errorf("composite size = %dx%d, want 640x360", info.Width, info.Height)
	}
}

func TestCompositeMissingInputWrapsError(t *testing.T) {
	e := newTestExecutor(t)
	err := e.Composite(t.Context(), CompositeOptions{
		Primary:   "/nonexistent/screen.mp4",
		Secondary: "/nonexistent/camera.mp4",
		Output:    filepath.Join(t.TempDir(), "out.mp4"),
		Config:    overlays.DefaultConfig(),
	})
	if !errors.Is(err, ErrComposite) {
		t.Errorf("expected ErrComposite, got %v", err)
	}
}

func TestThumbnail(t *testing.T) {
	e := newTestExecutor(t)
	dir := t.TempDir()
	src := generateVideo(t, e, dir, "src.mp4", 640, 360, 1)

	out := filepath.Join(dir, "thumb.jpg")
	if err := e.Thumbnail(t.Context(), src, 500*time.Millisecond, out); err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if st, err := os.Stat(out); err != nil || st.Size() == 0 {
		t.Errorf("thumbnail not written: %v", err)
	}
}

func TestListDevicesWrapsDeviceAccess(t *testing.T) {
	e := newTestExecutor(t)
	_, err := e.ListDevices(t.Context())
	if err != nil && !errors.Is(err, capture.ErrDeviceAccess) {
		t.Errorf("expected ErrDeviceAccess, got %v", err)
	}
}

func TestProgressParser(t *testing.T) {
	p := &progressParser{}
	lines := []string{
		"frame=48",
		"fps=24.00",
		"out_time_us=2000000",
		"out_time=00:00:02.000000",
		"speed=1.5x",
		"progress=continue",
	}
	var got *Progress
	for _, l := range lines {
		if prog, done := p.Feed(l); done {
			got = prog
		}
	}
	if got == nil {
		t.Fatal("expected a finished block")
	}
	if got.Frame != 48 || got.Seconds != 2 || got.Speed != "1.5x" || got.Time != "00:00:02.000000" {
		t.Errorf("progress = %+v", got)
	}

	if _, done := p.Feed("Stream mapping:"); done || p.InBlock() {
		t.Error("log line parsed as progress")
	}
	if _, done := p.Feed("progress=end"); done {
		t.Error("empty block should not be reported")
	}
}

func TestLogTailKeepsLastLines(t *testing.T) {
	tail := &logTail{max: 2}
	for _, l := range []string{"a", "", "b", "c"} {
		tail.Add(l)
	}
	if got := tail.String(); got != "b; c" {
		t.Errorf("tail = %q", got)
	}
}

func TestEncodingDefaults(t *testing.T) {
	got := strings.Join(Encoding{}.Args(), " ")
	want := "-c:v libx264 -preset medium -crf 23 -c:a aac"
	if got != want {
		t.Errorf("Args = %q, want %q", got, want)
	}
	if got := strings.Join(Encoding{Preset: FastPreset, CRF: 18}.VideoArgs(), " "); got != "-c:v libx264 -preset ultrafast -crf 18" {
		t.Errorf("VideoArgs = %q", got)
	}
}
