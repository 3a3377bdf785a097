package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/keagan/clipforge/pkg/util"
)

// ProbeVideo reads duration, geometry, frame rate and codecs with ffprobe
func (e *Executor) ProbeVideo(ctx context.Context, filePath string) (*VideoInfo, error) {
	if filePath == "" {
		return nil, fmt.Errorf("file path is required")
	}

	out, err := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	).Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", filePath, err)
	}
	return parseProbe(filePath, out)
}

func parseProbe(filePath string, data []byte) (*VideoInfo, error) {
	var res probeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	info := res.videoInfo(filePath)
	if info.Width == 0 {
		return nil, fmt.Errorf("no video stream in %s", filePath)
	}
	return info, nil
}

// probeResult is the subset of ffprobe's JSON the importer needs
type probeResult struct {
	Format  probeFormat   `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
	Size     string `json:"size"`
}

type probeStream struct {
	CodecType  string `json:"codec_type"`
	CodecName  string `json:"codec_name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	RFrameRate string `json:"r_frame_rate"`
}

// videoInfo takes geometry from the first video stream; cover art and
// secondary angles that follow it are ignored.
func (r probeResult) videoInfo(filePath string) *VideoInfo {
	info := &VideoInfo{FilePath: filePath}

	if secs, err := strconv.ParseFloat(r.Format.Duration, 64); err == nil {
		info.Duration = time.Duration(secs * float64(time.Second))
	}
	info.Bitrate, _ = strconv.ParseInt(r.Format.BitRate, 10, 64)
	info.FileSize, _ = strconv.ParseInt(r.Format.Size, 10, 64)

	for _, s := range r.Streams {
		switch s.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width, info.Height = s.Width, s.Height
				info.VideoCodec = s.CodecName
				info.FPS = util.ParseFrameRate(s.RFrameRate)
			}
		case "audio":
			if !info.HasAudio {
				info.HasAudio = true
				info.AudioCodec = s.CodecName
			}
		}
	}
	return info
}
