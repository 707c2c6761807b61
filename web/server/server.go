package server

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/df07/go-gpu-pathtracer/pkg/bsp"
	"github.com/df07/go-gpu-pathtracer/pkg/core"
	"github.com/df07/go-gpu-pathtracer/pkg/renderer"
	"github.com/df07/go-gpu-pathtracer/pkg/session"
)

// jitterSlot is the bind slot of the jitter table, served from the session rather than the packed scene
const jitterSlot = 2

// Server exposes one viewer session over HTTP
type Server struct {
	port      int
	staticDir string
	session   *session.Session
	console   *Console
	logger    core.Logger
	mux       *http.ServeMux
}

// NewServer creates a server for sess. Messages logged through console.Logger
// are streamed to render clients; staticDir may be empty.
func NewServer(port int, staticDir string, sess *session.Session, console *Console, logger core.Logger) *Server {
	if console == nil {
		console = NewConsole()
	}
	if logger == nil {
		logger = core.NopLogger{}
	}
	s := &Server{
		port:      port,
		staticDir: staticDir,
		session:   sess,
		console:   console,
		logger:    logger,
		mux:       http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/presets", s.handlePresets)
	s.mux.HandleFunc("POST /api/model", s.handleModel)
	s.mux.HandleFunc("POST /api/params", s.handleParams)
	s.mux.HandleFunc("POST /api/progressive", s.handleProgressive)
	s.mux.HandleFunc("GET /api/state", s.handleState)
	s.mux.HandleFunc("GET /api/buffers/{slot}", s.handleBuffer)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/frame.png", s.handleFrame)
	s.mux.HandleFunc("GET /api/render", s.handleRender)
	s.mux.HandleFunc("GET /api/inspect", s.handleInspect)

	if s.staticDir != "" {
		s.mux.Handle("GET /", http.FileServer(http.Dir(s.staticDir)))
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start serves until the listener fails
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Noticef("starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// ModelRequest selects the model to load; exactly one field is set
type ModelRequest struct {
	Preset string `json:"preset"`
	File   string `json:"file"` // relative to the model directory
}

// ParamsRequest changes any subset of the render parameters
type ParamsRequest struct {
	Eye            *core.Vec3 `json:"eye"`
	At             *core.Vec3 `json:"at"`
	Up             *core.Vec3 `json:"up"`
	CameraConstant *float32   `json:"cameraConstant"`
	Zoom           *float32   `json:"zoom"` // wheel delta
	FocusDistance  *float32   `json:"focusDistance"`
	LensRadius     *float32   `json:"lensRadius"`
	Gamma          *float32   `json:"gamma"`
	Wrap           *bool      `json:"wrap"`
	Filter         *bool      `json:"filter"`
	UseTexture     *bool      `json:"useTexture"`
	BlueBackground *bool      `json:"blueBackground"`
	ShadingMode    *string    `json:"shadingMode"`
	TextureScaling *int       `json:"textureScaling"`
	Subdivision    *int       `json:"subdivision"`
}

// ProgressiveRequest turns accumulation on or off
type ProgressiveRequest struct {
	Enabled bool `json:"enabled"`
}

// BufferInfo describes one packed scene buffer
type BufferInfo struct {
	Binding uint32 `json:"binding"`
	Name    string `json:"name"`
	Bytes   int    `json:"bytes"`
}

// StatsResponse is the JSON form of /api/stats
type StatsResponse struct {
	Model   string              `json:"model"`
	Tree    bsp.Stats           `json:"tree"`
	Buffers []BufferInfo        `json:"buffers"`
	Total   int                 `json:"totalBytes"`
	Frames  renderer.FrameStats `json:"frames"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, session.Presets())
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	var req ModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	var err error
	switch {
	case req.Preset != "" && req.File != "":
		writeError(w, http.StatusBadRequest, "set either preset or file, not both")
		return
	case req.Preset != "":
		err = s.session.LoadPreset(r.Context(), req.Preset)
	case req.File != "":
		err = s.session.LoadFile(r.Context(), s.modelPath(req.File))
	default:
		writeError(w, http.StatusBadRequest, "preset or file is required")
		return
	}

	if errors.Is(err, session.ErrUnknownPreset) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.session.State())
}

// modelPath resolves file inside the model directory; ".." cannot escape it
func (s *Server) modelPath(file string) string {
	return filepath.Join(s.session.Settings().ModelDir, filepath.Clean("/"+file))
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	var req ParamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.applyParams(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.session.State())
}

// applyParams applies the set fields in order and stops at the first rejected value
func (s *Server) applyParams(req ParamsRequest) error {
	sess := s.session

	if req.Eye != nil || req.At != nil || req.Up != nil || req.CameraConstant != nil {
		camera := sess.Camera()
		if req.Eye != nil {
			camera.Eye = *req.Eye
		}
		if req.At != nil {
			camera.At = *req.At
		}
		if req.Up != nil {
			camera.Up = *req.Up
		}
		if req.CameraConstant != nil {
			if *req.CameraConstant <= 0 {
				return fmt.Errorf("camera constant must be positive, got %v", *req.CameraConstant)
			}
			camera.CameraConstant = *req.CameraConstant
		}
		if camera.Eye == camera.At {
			return errors.New("eye and at must differ")
		}
		if err := sess.SetCamera(camera); err != nil {
			return err
		}
	}

	steps := []struct {
		set   bool
		apply func() error
	}{
		{req.Zoom != nil, func() error { return sess.Zoom(*req.Zoom) }},
		{req.FocusDistance != nil, func() error { return sess.SetFocusDistance(*req.FocusDistance) }},
		{req.LensRadius != nil, func() error { return sess.SetLensRadius(*req.LensRadius) }},
		{req.Gamma != nil, func() error { return sess.SetGamma(*req.Gamma) }},
		{req.Wrap != nil, func() error { return sess.SetWrap(*req.Wrap) }},
		{req.Filter != nil, func() error { return sess.SetFilter(*req.Filter) }},
		{req.UseTexture != nil, func() error { return sess.SetUseTexture(*req.UseTexture) }},
		{req.BlueBackground != nil, func() error { return sess.SetBlueBackground(*req.BlueBackground) }},
		{req.ShadingMode != nil, func() error {
			mode, err := renderer.ParseShadingMode(*req.ShadingMode)
			if err != nil {
				return err
			}
			return sess.SetShadingMode(mode)
		}},
		{req.TextureScaling != nil, func() error { return sess.SetTextureScaling(*req.TextureScaling) }},
		{req.Subdivision != nil, func() error { return sess.SetSubdivision(*req.Subdivision) }},
	}
	for _, step := range steps {
		if !step.set {
			continue
		}
		if err := step.apply(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleProgressive(w http.ResponseWriter, r *http.Request) {
	var req ProgressiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := s.session.SetProgressive(req.Enabled); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.session.State())
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.State())
}

// handleBuffer serves the raw little-endian contents of one bind slot
func (s *Server) handleBuffer(w http.ResponseWriter, r *http.Request) {
	slot, err := strconv.ParseUint(r.PathValue("slot"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid slot: "+r.PathValue("slot"))
		return
	}

	var data []byte
	if slot == jitterSlot {
		var buf bytes.Buffer
		if err := binary.Write(&buf, binary.LittleEndian, s.session.Jitter()); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		data = buf.Bytes()
	} else {
		scene := s.session.Scene()
		if scene == nil {
			writeError(w, http.StatusNotFound, session.ErrNoScene.Error())
			return
		}
		packed, ok := scene.Buffers.Slot(uint32(slot))
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("slot %d is not a scene buffer", slot))
			return
		}
		data = packed.Data
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleStats returns tree, buffer and frame statistics; format=text renders them as tables
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	scene := s.session.Scene()
	if scene == nil {
		writeError(w, http.StatusNotFound, session.ErrNoScene.Error())
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		scene.Tree.Stats().WriteTable(w)
		scene.Buffers.WriteStats(w)
		s.session.Stats().WriteTable(w)
		return
	}

	resp := StatsResponse{
		Model:  scene.Name,
		Tree:   scene.Tree.Stats(),
		Total:  scene.Buffers.TotalBytes(),
		Frames: s.session.Stats(),
	}
	for _, slot := range scene.Buffers.Slots() {
		resp.Buffers = append(resp.Buffers, BufferInfo{Binding: slot.Binding, Name: slot.Name, Bytes: len(slot.Data)})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	img, err := s.session.ReadFrame(r.Context())
	switch {
	case errors.Is(err, session.ErrNoScene):
		writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, session.ErrNoFrameReadback):
		writeError(w, http.StatusNotImplemented, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
