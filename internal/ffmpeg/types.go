package ffmpeg

import (
	"strconv"
	"time"
)

// VideoInfo is what ffprobe reports about a media file
type VideoInfo struct {
	FilePath   string
	Duration   time.Duration
	Width      int
	Height     int
	FPS        float64
	Bitrate    int64
	FileSize   int64
	VideoCodec string
	HasAudio   bool
	AudioCodec string
}

// Progress is one -progress block
type Progress struct {
	Frame   int
	FPS     float64
	Time    string
	Seconds float64
	Speed   string
}

// RunOptions configures one ffmpeg invocation
type RunOptions struct {
	Args            []string
	ProgressHandler func(*Progress)
	LogHandler      func(line string)
}

// Encoding defaults
const (
	DefaultCRF        = 23
	DefaultPreset     = "medium"
	FastPreset        = "ultrafast"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)

// ProgressFunc receives progress while an encode runs
type ProgressFunc func(*Progress)

// Encoding selects codecs and quality; zero fields take the defaults
type Encoding struct {
	VideoCodec string
	AudioCodec string
	Preset     string
	CRF        int
}

func (enc Encoding) withDefaults() Encoding {
	if enc.VideoCodec == "" {
		enc.VideoCodec = DefaultVideoCodec
	}
	if enc.AudioCodec == "" {
		enc.AudioCodec = DefaultAudioCodec
	}
	if enc.Preset == "" {
		enc.Preset = DefaultPreset
	}
	if enc.CRF == 0 {
		enc.CRF = DefaultCRF
	}
	return enc
}

// VideoArgs returns the video codec flags
func (enc Encoding) VideoArgs() []string {
	enc = enc.withDefaults()
	return []string{"-c:v", enc.VideoCodec, "-preset", enc.Preset, "-crf", strconv.Itoa(enc.CRF)}
}

// Args returns video then audio codec flags
func (enc Encoding) Args() []string {
	return append(enc.VideoArgs(), "-c:a", enc.withDefaults().AudioCodec)
}
