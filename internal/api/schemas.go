package api

import (
	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/overlays"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type TimelineResponse struct {
	Clips    []clips.Clip `json:"clips"`
	Playhead float64      `json:"playhead"`
	Selected string       `json:"selected,omitempty"`
	End      float64      `json:"end"`
	CanUndo  bool         `json:"can_undo"`
	CanRedo  bool         `json:"can_redo"`
}

// AddClipRequest places a clip. Mode is place (at StartTime, no shifting),
// insert (at StartTime, shifting later clips) or append.
type AddClipRequest struct {
	MediaRef       string  `json:"media_ref"`
	Name           string  `json:"name,omitempty"`
	SourceDuration float64 `json:"source_duration"`
	StartTime      float64 `json:"start_time"`
	TrimStart      float64 `json:"trim_start"`
	TrimEnd        float64 `json:"trim_end"`
	Mode           string  `json:"mode,omitempty"`
}

type ImportRequest struct {
	Paths []string `json:"paths"`
}

type ImportResponse struct {
	Placed   []clips.Clip `json:"placed"`
	Rejected int          `json:"rejected"`
	Errors   []string     `json:"errors,omitempty"`
}

type TrimRequest struct {
	TrimStart float64 `json:"trim_start"`
	TrimEnd   float64 `json:"trim_end"`
}

type MoveRequest struct {
	StartTime float64 `json:"start_time"`
}

type MoveResponse struct {
	Clip clips.Clip       `json:"clip"`
	Snap clips.SnapResult `json:"snap"`
}

type SplitRequest struct {
	Time *float64 `json:"time,omitempty"`
}

type SplitResponse struct {
	Left  clips.Clip `json:"left"`
	Right clips.Clip `json:"right"`
}

type SeekRequest struct {
	Time float64 `json:"time"`
}

type PlaybackResponse struct {
	Mode     string      `json:"mode"`
	State    string      `json:"state"`
	Playhead float64     `json:"playhead"`
	Stalled  bool        `json:"stalled"`
	Active   *ActiveClip `json:"active,omitempty"`
	Error    string      `json:"error,omitempty"`
}

type ActiveClip struct {
	Clip       clips.Clip `json:"clip"`
	SourceTime float64    `json:"source_time"`
}

type PiPRectResponse struct {
	Config overlays.Config `json:"config"`
	Rect   overlays.Rect   `json:"rect"`
}
