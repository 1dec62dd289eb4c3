// Package bridge serves the HTTP front end used by the browser preview tool:
// it accepts an entity folder path, runs the builder for that one folder in a
// child process, and answers with the sheet encoded as base64.
package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"spritegg/internal/logging"
	"spritegg/internal/sprite"
	"spritegg/internal/tactile"
)

const maxBodyBytes = 64 << 10

// Config configures the bridge.
type Config struct {
	// Executable is the builder binary spawned per request.
	Executable string
	// ConfigPath is handed to the builder as --config when set.
	ConfigPath string

	FrameWidth  int
	FrameHeight int

	// MaxConnections caps concurrent connections; zero means unlimited.
	MaxConnections int
	// BuildTimeout bounds one child build; zero lets it run to completion.
	// The child applies its own per-call backend timeout.
	BuildTimeout time.Duration
}

// BuildResponse is the success payload of POST /build.
type BuildResponse struct {
	Success     bool   `json:"success"`
	FolderName  string `json:"folder_name"`
	ObjectType  string `json:"object_type"`
	OutputName  string `json:"output_name"`
	OutputPath  string `json:"output_path"`
	FrameWidth  int    `json:"frame_width"`
	FrameHeight int    `json:"frame_height"`
	StdoutTail  string `json:"stdout_tail"`
	StderrTail  string `json:"stderr_tail"`
	PNGBase64   string `json:"png_base64"`
}

type buildRequest struct {
	FolderPath string `json:"folder_path"`
}

// Server handles bridge requests. Builds for the same folder that overlap in
// time share one child process; different folders build in parallel.
type Server struct {
	cfg      Config
	executor tactile.Executor
	flights  singleflight.Group
}

// New creates a server. A nil executor uses a DirectExecutor.
func New(cfg Config, executor tactile.Executor) *Server {
	if executor == nil {
		executor = tactile.NewDirectExecutor()
	}
	return &Server{cfg: cfg, executor: executor}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/build", s.handleBuild)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Not found"})
	})
	return s.middleware(mux)
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		h := w.Header()
		h.Set("X-Request-Id", id)
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")

		start := time.Now()
		if r.Method == http.MethodOptions {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		} else {
			next.ServeHTTP(w, r)
		}
		logging.Get(logging.CategoryServer).With("request_id", id).
			Debug("%s %s in %s", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "Not found"})
		return
	}

	var req buildRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err == nil && len(strings.TrimSpace(string(body))) > 0 {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		s.fail(w, r, fmt.Errorf("invalid request body: %w", err))
		return
	}

	resp, err := s.Build(r.Context(), req.FolderPath)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	logging.ServerError("%s %s: %v", r.Method, r.URL.Path, err)
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": err.Error()})
}

// Build builds the entity folder at folderPath and returns the response
// payload.
func (s *Server) Build(ctx context.Context, folderPath string) (*BuildResponse, error) {
	folderPath = strings.TrimSpace(folderPath)
	if folderPath == "" {
		return nil, errors.New("missing folder_path")
	}
	abs, err := filepath.Abs(folderPath)
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("folder does not exist: %s", abs)
	}

	// The child is shared by every caller for abs, so it must outlive the
	// request that happened to start it.
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := s.flights.Do(abs, func() (interface{}, error) {
		return s.runBuilder(flightCtx, abs)
	})
	if shared {
		logging.Server("joined in-flight build for %s", abs)
	}
	if err != nil {
		return nil, err
	}
	return v.(*BuildResponse), nil
}

func (s *Server) runBuilder(ctx context.Context, folder string) (*BuildResponse, error) {
	name := filepath.Base(folder)
	typ, ok := sprite.Classify(name, nil)
	if !ok {
		return nil, fmt.Errorf("%w: use PJ_, W_, NPC_, I_ or E#_", sprite.ErrUnknownPrefix)
	}
	outputName, err := sprite.OutputName(name)
	if err != nil {
		return nil, err
	}
	outputPath := filepath.Join(folder, outputName)
	parent := filepath.Dir(folder)

	args := []string{"build"}
	if s.cfg.ConfigPath != "" {
		args = append(args, "--config", s.cfg.ConfigPath)
	}
	args = append(args,
		"--root", parent,
		"--only", name,
		"--rebuild-all",
		"--precheck",
		"--stitch", "append",
	)

	timeout := s.cfg.BuildTimeout
	if timeout <= 0 {
		timeout = tactile.NoTimeout
	}

	logging.Server("build start: %s", folder)
	timer := logging.StartTimer(logging.CategoryServer, "build "+name)
	result, err := s.executor.Execute(ctx, tactile.Command{
		Binary:           s.cfg.Executable,
		Arguments:        args,
		WorkingDirectory: parent,
		Timeout:          timeout,
	})
	timer.StopWithInfo()
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(result.Stdout)
		}
		if detail == "" {
			detail = result.Reason()
		}
		if detail == "" {
			detail = "build failed"
		}
		return nil, errors.New(detail)
	}

	data, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("expected output not found: %s", outputPath)
	}

	return &BuildResponse{
		Success:     true,
		FolderName:  name,
		ObjectType:  typ.String(),
		OutputName:  outputName,
		OutputPath:  outputPath,
		FrameWidth:  s.cfg.FrameWidth,
		FrameHeight: s.cfg.FrameHeight,
		StdoutTail:  tactile.LastLine(result.Stdout),
		StderrTail:  tactile.LastLine(result.Stderr),
		PNGBase64:   base64.StdEncoding.EncodeToString(data),
	}, nil
}

// Serve serves on ln until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Server("Builder bridge running on http://%s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"success":false,"error":"encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	w.WriteHeader(status)
	w.Write(body)
}
