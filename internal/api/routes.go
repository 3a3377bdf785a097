package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keagan/clipforge/internal/clips"
	"github.com/keagan/clipforge/internal/editor"
	"github.com/keagan/clipforge/internal/export"
	"github.com/keagan/clipforge/internal/overlays"
	"github.com/keagan/clipforge/internal/playback"
)

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))
	r.Get("/pip/rect", pipRectHandler())

	r.Route("/timeline", func(r chi.Router) {
		r.Get("/", timelineHandler(cfg))
		r.Get("/active", activeHandler(cfg))
		r.Get("/edl", edlHandler(cfg))
		r.Post("/clips", addClipHandler(cfg))
		r.Post("/import", importHandler(cfg))
		r.Delete("/clips/{id}", deleteClipHandler(cfg))
		r.Patch("/clips/{id}/trim", trimHandler(cfg))
		r.Post("/clips/{id}/move", moveHandler(cfg))
		r.Post("/split", splitHandler(cfg))
		r.Post("/undo", undoHandler(cfg))
		r.Post("/redo", redoHandler(cfg))
	})

	r.Route("/playback", func(r chi.Router) {
		r.Get("/", playbackHandler(cfg))
		r.Post("/seek", seekHandler(cfg))
		r.Post("/play", transportHandler(cfg, (*playback.Synchronizer).Play))
		r.Post("/pause", transportHandler(cfg, (*playback.Synchronizer).Pause))
		r.Post("/stop", transportHandler(cfg, (*playback.Synchronizer).Stop))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Version: Version,
			UptimeS: uptime,
		})
	}
}

func timelineHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp TimelineResponse
		cfg.Session.Do(func(s *editor.Session) {
			resp = timelineResponse(s)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}

func timelineResponse(s *editor.Session) TimelineResponse {
	return TimelineResponse{
		Clips:    s.Store.Clips(),
		Playhead: s.Timeline.Playhead(),
		Selected: s.Timeline.Selected(),
		End:      s.Store.EndTime(),
		CanUndo:  s.Store.CanUndo(),
		CanRedo:  s.Store.CanRedo(),
	}
}

func activeHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := strconv.ParseFloat(r.URL.Query().Get("t"), 64)
		if err != nil || t < 0 {
			WriteError(w, http.StatusBadRequest, "t must be a non-negative number of seconds", "INVALID_REQUEST")
			return
		}

		var (
			active playback.Active
			ok     bool
		)
		cfg.Session.Do(func(s *editor.Session) {
			active, ok = playback.ActiveAt(s.Store.Clips(), t)
		})
		if !ok {
			WriteError(w, http.StatusNotFound, "no clip at that time", "NOT_FOUND")
			return
		}
		WriteJSON(w, http.StatusOK, ActiveClip{Clip: active.Clip, SourceTime: active.SourceTime})
	}
}

func edlHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fps := 0.0
		if v := r.URL.Query().Get("fps"); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil || parsed <= 0 {
				WriteError(w, http.StatusBadRequest, "fps must be a positive number", "INVALID_REQUEST")
				return
			}
			fps = parsed
		}

		var edl string
		cfg.Session.Do(func(s *editor.Session) {
			edl = export.GenerateEDL(s.Store.Clips(), r.URL.Query().Get("title"), fps)
		})
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(edl))
	}
}

func addClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddClipRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "INVALID_REQUEST")
			return
		}

		d := clips.Draft{
			MediaRef:       req.MediaRef,
			Name:           req.Name,
			SourceDuration: req.SourceDuration,
			StartTime:      req.StartTime,
			TrimStart:      req.TrimStart,
			TrimEnd:        req.TrimEnd,
		}

		var (
			c   clips.Clip
			err error
		)
		cfg.Session.Do(func(s *editor.Session) {
			switch req.Mode {
			case "", "place":
				c, err = s.Store.Add(d)
			case "insert":
				c, err = s.Store.InsertWithShift(d, req.StartTime)
			case "append":
				c, err = s.Store.Append(d)
			default:
				err = errUnknownMode
			}
			if err == nil {
				s.Timeline.Select(c.ID)
				s.Player.Refresh()
			}
		})
		if err != nil {
			writeEditError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, c)
	}
}

func importHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.Importer == nil {
			WriteError(w, http.StatusServiceUnavailable, "media import is not available", "UNAVAILABLE")
			return
		}

		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Paths) == 0 {
			WriteError(w, http.StatusBadRequest, "paths are required", "INVALID_REQUEST")
			return
		}

		// Probing runs outside the session lock
		res := cfg.Importer.Import(r.Context(), req.Paths)

		resp := ImportResponse{Rejected: res.Rejected}
		for _, err := range res.Errors {
			resp.Errors = append(resp.Errors, err.Error())
		}
		cfg.Session.Do(func(s *editor.Session) {
			resp.Placed = s.AddImported(res)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var ok bool
		cfg.Session.Do(func(s *editor.Session) {
			if ok = s.Store.Remove(id); ok {
				s.Player.Refresh()
			}
		})
		if !ok {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func trimHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req TrimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "INVALID_REQUEST")
			return
		}

		var (
			c      clips.Clip
			exists bool
			ok     bool
		)
		cfg.Session.Do(func(s *editor.Session) {
			if _, exists = s.Store.Get(id); !exists {
				return
			}
			if c, ok = s.Store.SetTrim(id, req.TrimStart, req.TrimEnd); ok {
				s.Player.Refresh()
			}
		})
		switch {
		case !exists:
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
		case !ok:
			WriteError(w, http.StatusConflict, "trim would break clip bounds or overlap a neighbour", "TRIM_REJECTED")
		default:
			WriteJSON(w, http.StatusOK, c)
		}
	}
}

func moveHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req MoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "INVALID_REQUEST")
			return
		}

		var (
			resp   MoveResponse
			exists bool
			ok     bool
		)
		cfg.Session.Do(func(s *editor.Session) {
			if _, exists = s.Store.Get(id); !exists {
				return
			}
			resp.Clip, resp.Snap, ok = s.Timeline.MoveClip(id, req.StartTime)
			if ok {
				s.Player.Refresh()
			}
		})
		switch {
		case !exists:
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
		case !ok:
			writeEditError(w, clips.ErrPlacementRejected)
		default:
			WriteJSON(w, http.StatusOK, resp)
		}
	}
}

func splitHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SplitRequest
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				WriteError(w, http.StatusBadRequest, "invalid request body", "INVALID_REQUEST")
				return
			}
		}

		var (
			resp SplitResponse
			err  error
		)
		cfg.Session.Do(func(s *editor.Session) {
			if req.Time != nil {
				s.Seek(*req.Time)
			}
			resp.Left, resp.Right, err = s.SplitAtPlayhead()
		})
		if err != nil {
			WriteError(w, http.StatusConflict, err.Error(), "SPLIT_REJECTED")
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func undoHandler(cfg ServerConfig) http.HandlerFunc {
	return historyHandler(cfg, (*editor.Session).Undo, "nothing to undo")
}

func redoHandler(cfg ServerConfig) http.HandlerFunc {
	return historyHandler(cfg, (*editor.Session).Redo, "nothing to redo")
}

func historyHandler(cfg ServerConfig, step func(*editor.Session) bool, empty string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			ok   bool
			resp TimelineResponse
		)
		cfg.Session.Do(func(s *editor.Session) {
			ok = step(s)
			resp = timelineResponse(s)
		})
		if !ok {
			WriteError(w, http.StatusConflict, empty, "HISTORY_EMPTY")
			return
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func playbackHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp PlaybackResponse
		cfg.Session.Do(func(s *editor.Session) {
			resp = playbackResponse(s.Player)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}

func playbackResponse(p *playback.Synchronizer) PlaybackResponse {
	mode := p.Mode()
	resp := PlaybackResponse{
		Mode:     mode.String(),
		State:    p.State(mode).String(),
		Playhead: p.Playhead(),
		Stalled:  p.Stalled(),
	}
	if a, ok := p.Active(); ok {
		resp.Active = &ActiveClip{Clip: a.Clip, SourceTime: a.SourceTime}
	}
	if err := p.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

func seekHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SeekRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "INVALID_REQUEST")
			return
		}

		var resp PlaybackResponse
		cfg.Session.Do(func(s *editor.Session) {
			s.Seek(req.Time)
			resp = playbackResponse(s.Player)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}

func transportHandler(cfg ServerConfig, action func(*playback.Synchronizer)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var resp PlaybackResponse
		cfg.Session.Do(func(s *editor.Session) {
			action(s.Player)
			s.SyncPlayhead()
			resp = playbackResponse(s.Player)
		})
		WriteJSON(w, http.StatusOK, resp)
	}
}

func pipRectHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		cfg := overlays.DefaultConfig()

		if v := q.Get("position"); v != "" {
			pos, err := overlays.ParsePosition(v)
			if err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
				return
			}
			cfg.Position = pos
		}
		if v := q.Get("size"); v != "" {
			size, err := overlays.ParseSize(v)
			if err != nil {
				WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
				return
			}
			cfg.Size = size
		}

		width, errW := strconv.Atoi(q.Get("width"))
		height, errH := strconv.Atoi(q.Get("height"))
		if errW != nil || errH != nil || width <= 0 || height <= 0 {
			WriteError(w, http.StatusBadRequest, "width and height must be positive integers", "INVALID_REQUEST")
			return
		}

		aspect := 0.0
		if v := q.Get("aspect"); v != "" {
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				WriteError(w, http.StatusBadRequest, "aspect must be a number", "INVALID_REQUEST")
				return
			}
			aspect = parsed
		}

		WriteJSON(w, http.StatusOK, PiPRectResponse{
			Config: cfg,
			Rect:   overlays.OverlayRect(cfg, width, height, aspect),
		})
	}
}

var errUnknownMode = errors.New("mode must be place, insert or append")

func writeEditError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, clips.ErrPlacementRejected):
		WriteError(w, http.StatusConflict, editor.Describe(err), "PLACEMENT_REJECTED")
	case errors.Is(err, clips.ErrInvalidDraft), errors.Is(err, errUnknownMode):
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_REQUEST")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
