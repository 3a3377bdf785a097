package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// MaxMessageSize bounds a single framed message
const MaxMessageSize = 32 << 20

var (
	// ErrUnknownEvent is returned for an envelope kind outside the known set
	ErrUnknownEvent = errors.New("unknown capture event")
	// ErrInvalidEvent is returned when a payload fails validation
	ErrInvalidEvent = errors.New("invalid capture event")
)

// Kind tags an event envelope
type Kind string

const (
	KindPreviewFrame     Kind = "preview-frame"
	KindMetrics          Kind = "preview-metrics"
	KindRecordingStarted Kind = "recording-started"
	KindRecordingStopped Kind = "recording-stopped"
	KindDeviceError      Kind = "device-error"
)

// Event is one push notification from the capture helper
type Event interface {
	Kind() Kind
	Validate() error
}

// PreviewFrame is a low-rate JPEG preview of the capture
type PreviewFrame struct {
	ImageData []byte  `msgpack:"image_data"`
	Width     int     `msgpack:"width"`
	Height    int     `msgpack:"height"`
	Seq       uint64  `msgpack:"seq"`
	Timestamp float64 `msgpack:"timestamp"`
}

func (PreviewFrame) Kind() Kind { return KindPreviewFrame }

func (f PreviewFrame) Validate() error {
	if len(f.ImageData) == 0 {
		return fmt.Errorf("%w: preview frame %d has no image data", ErrInvalidEvent, f.Seq)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: preview frame %d is %dx%d", ErrInvalidEvent, f.Seq, f.Width, f.Height)
	}
	return nil
}

// Image decodes the JPEG payload
func (f PreviewFrame) Image() (image.Image, error) {
	img, err := jpeg.Decode(bytes.NewReader(f.ImageData))
	if err != nil {
		return nil, fmt.Errorf("decode preview frame %d: %w", f.Seq, err)
	}
	return img, nil
}

// Metrics is a capture pipeline health snapshot
type Metrics struct {
	CurrentFPS    float64 `msgpack:"current_fps" json:"current_fps"`
	DroppedFrames uint64  `msgpack:"dropped_frames" json:"dropped_frames"`
	QueueSize     int     `msgpack:"queue_size" json:"queue_size"`
	TotalFrames   uint64  `msgpack:"total_frames" json:"total_frames"`
	AvgFrameSize  int     `msgpack:"avg_frame_size" json:"avg_frame_size"`
}

func (Metrics) Kind() Kind { return KindMetrics }

func (m Metrics) Validate() error {
	if m.CurrentFPS < 0 || m.QueueSize < 0 || m.AvgFrameSize < 0 {
		return fmt.Errorf("%w: negative metrics %+v", ErrInvalidEvent, m)
	}
	return nil
}

// RecordingStarted confirms a recording began
type RecordingStarted struct {
	RecordingID string `msgpack:"recording_id"`
	Path        string `msgpack:"path"`
}

func (RecordingStarted) Kind() Kind { return KindRecordingStarted }

func (r RecordingStarted) Validate() error {
	if r.RecordingID == "" || r.Path == "" {
		return fmt.Errorf("%w: recording started without id or path", ErrInvalidEvent)
	}
	return nil
}

// RecordingStopped reports a finished recording file
type RecordingStopped struct {
	RecordingID string  `msgpack:"recording_id"`
	Path        string  `msgpack:"path"`
	Duration    float64 `msgpack:"duration"`
}

func (RecordingStopped) Kind() Kind { return KindRecordingStopped }

func (r RecordingStopped) Validate() error {
	if r.RecordingID == "" || r.Path == "" {
		return fmt.Errorf("%w: recording stopped without id or path", ErrInvalidEvent)
	}
	if r.Duration < 0 {
		return fmt.Errorf("%w: negative recording duration %f", ErrInvalidEvent, r.Duration)
	}
	return nil
}

// DeviceError reports a device the helper could not open
type DeviceError struct {
	Device  string `msgpack:"device"`
	Message string `msgpack:"message"`
}

func (DeviceError) Kind() Kind { return KindDeviceError }

func (d DeviceError) Validate() error {
	if d.Message == "" {
		return fmt.Errorf("%w: device error without message", ErrInvalidEvent)
	}
	return nil
}

// Err converts the report into an ErrDeviceAccess error
func (d DeviceError) Err() error {
	return fmt.Errorf("%w: %s: %s", ErrDeviceAccess, d.Device, d.Message)
}

type envelope struct {
	Kind    Kind               `msgpack:"kind"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

// EncodeEvent wraps an event in its envelope
func EncodeEvent(ev Event) ([]byte, error) {
	payload, err := msgpack.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", ev.Kind(), err)
	}
	data, err := msgpack.Marshal(envelope{Kind: ev.Kind(), Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", ev.Kind(), err)
	}
	return data, nil
}

// DecodeEvent unwraps and validates one envelope
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	var ev Event
	var err error
	switch env.Kind {
	case KindPreviewFrame:
		ev, err = decodePayload[PreviewFrame](env.Payload)
	case KindMetrics:
		ev, err = decodePayload[Metrics](env.Payload)
	case KindRecordingStarted:
		ev, err = decodePayload[RecordingStarted](env.Payload)
	case KindRecordingStopped:
		ev, err = decodePayload[RecordingStopped](env.Payload)
	case KindDeviceError:
		ev, err = decodePayload[DeviceError](env.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", env.Kind, err)
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

func decodePayload[T Event](raw msgpack.RawMessage) (Event, error) {
	var v T
	if err := msgpack.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// WriteMessage writes one length-prefixed message (4-byte big-endian length)
func WriteMessage(w io.Writer, data []byte) error {
	if len(data) > MaxMessageSize {
		return fmt.Errorf("message of %d bytes exceeds limit", len(data))
	}
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(data)))
	if _, err := w.Write(prefix[:]); err != nil {
		return fmt.Errorf("write length prefix: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// ReadMessage reads one length-prefixed message. It returns io.EOF at a clean end of stream.
func ReadMessage(r io.Reader) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(prefix[:])
	if n > MaxMessageSize {
		return nil, fmt.Errorf("message of %d bytes exceeds limit", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read message body: %w", err)
	}
	return data, nil
}

// WriteEvent encodes and frames an event
func WriteEvent(w io.Writer, ev Event) error {
	data, err := EncodeEvent(ev)
	if err != nil {
		return err
	}
	return WriteMessage(w, data)
}

// ReadEvents decodes framed events until EOF. Invalid events are passed to
// onInvalid and skipped; framing errors end the stream.
func ReadEvents(r io.Reader, onEvent func(Event), onInvalid func(error)) error {
	for {
		data, err := ReadMessage(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		ev, err := DecodeEvent(data)
		if err != nil {
			if onInvalid != nil {
				onInvalid(err)
			}
			continue
		}
		onEvent(ev)
	}
}
