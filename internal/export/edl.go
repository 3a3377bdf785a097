package export

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/keagan/clipforge/internal/clips"
)

// DefaultFrameRate is used when neither the caller nor the clips give a rate
const DefaultFrameRate = 30.0

// GenerateEDL writes a CMX3600 edit decision list for the timeline.
// Record times follow each clip's timeline position, so gaps are kept.
// A frameRate <= 0 takes the first clip's rate.
func GenerateEDL(timeline []clips.Clip, title string, frameRate float64) string {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
		for _, c := range timeline {
			if c.FrameRate > 0 {
				frameRate = c.FrameRate
				break
			}
		}
	}
	fps := int(math.Round(frameRate))

	title = SanitizeName(title, 120)
	if title == "" {
		title = "clipforge"
	}

	lines := []string{fmt.Sprintf("TITLE: %s", title)}
	if isDropFrame(frameRate) {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, c := range timeline {
		srcIn := Timecode(c.TrimStart, fps)
		srcOut := Timecode(c.TrimEnd, fps)
		recIn := Timecode(c.StartTime, fps)
		recOut := Timecode(c.End(), fps)

		name := c.Name
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(c.MediaRef), filepath.Ext(c.MediaRef))
		}

		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, reelName(i), "V", srcIn, srcOut, recIn, recOut),
			fmt.Sprintf("* FROM CLIP NAME:  %s", SanitizeName(name, 160)),
			fmt.Sprintf("* MEDIA PATH:  %s", c.MediaRef),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// Timecode renders seconds as HH:MM:SS:FF at fps
func Timecode(seconds float64, fps int) string {
	if fps <= 0 {
		fps = int(DefaultFrameRate)
	}
	totalFrames := int(math.Round(math.Max(0, seconds) * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	return fmt.Sprintf("%02d:%02d:%02d:%02d", totalSeconds/3600, (totalSeconds/60)%60, totalSeconds%60, frames)
}

func isDropFrame(rate float64) bool {
	return math.Abs(rate-29.97) < 0.01 || math.Abs(rate-59.94) < 0.01
}

func reelName(i int) string {
	return fmt.Sprintf("AX%03d", i+1)
}

// SanitizeName drops control characters and replaces anything outside a
// conservative set with underscores, then trims to maxLen runes.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(" -_.,()", r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if runes := []rune(cleaned); maxLen > 0 && len(runes) > maxLen {
		cleaned = string(runes[:maxLen])
	}
	return cleaned
}
