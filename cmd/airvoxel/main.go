package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ayusman/airvoxel/internal/app"
	"github.com/ayusman/airvoxel/internal/capture"
	"github.com/ayusman/airvoxel/internal/config"
	"github.com/ayusman/airvoxel/internal/render"
	"github.com/ayusman/airvoxel/internal/server"
	"github.com/ayusman/airvoxel/internal/session"
	"github.com/ayusman/airvoxel/internal/store"
	"github.com/ayusman/airvoxel/internal/tray"
)

func main() {
	fmt.Println("AirVoxel - Hand Gesture Voxel Drawing")

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to load .env: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		log.Fatalf("Failed to resolve data directory: %v", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	st, err := store.New(filepath.Join(dataDir, "airvoxel.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	settings, err := st.Settings().All()
	if err != nil {
		log.Fatalf("Failed to read settings: %v", err)
	}
	if err := cfg.ApplySettings(settings); err != nil {
		log.Printf("Ignoring stored tuning: %v", err)
		cfg, _ = loadConfig()
	}

	sess := session.New(cfg.SessionConfig())
	overlay := render.NewOverlay(render.DefaultStyle())

	a := app.New(app.Config{
		Session: sess,
		Store:   st,
		CameraConfig: capture.Config{
			DeviceID: cfg.Camera.DeviceID,
			Width:    cfg.Canvas.Width,
			Height:   cfg.Canvas.Height,
			FPS:      app.IdleFPS,
		},
		MotionThresh: cfg.Camera.MotionThreshold,
		DetectorConf: cfg.HandDetector(),
		Overlay:      overlay,
	})

	webDir := findWebDir(cfg.Server.StaticDir, dataDir)
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:      webDir,
		Store:          st,
		Voxels:         a,
		Tuner:          sess,
		Frames:         overlay,
		CurrentSession: a.SessionID,
	})
	a.AddRenderer(srv.State())

	httpServer := &http.Server{Addr: cfg.Server.Addr, Handler: srv}
	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	a.SetEnabled(true)
	if err := a.Start(); err != nil {
		log.Printf("Camera unavailable, serving without capture: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := func() {
		a.Stop()
		if err := httpServer.Shutdown(context.Background()); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}

	if !cfg.Tray.Enabled {
		<-ctx.Done()
		shutdown()
		return
	}

	t := tray.New()
	t.OnToggle(a.SetEnabled)
	t.OnClear(a.Clear)
	t.OnOpen(func() { openBrowser("http://" + cfg.Server.Addr) })
	t.OnQuit(stop)
	a.AddRenderer(t)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
	shutdown()
}

// loadConfig reads the file named by AIRVOXEL_CONFIG, or the defaults, and
// applies the AIRVOXEL_ADDR override.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if path := os.Getenv("AIRVOXEL_CONFIG"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if addr := os.Getenv("AIRVOXEL_ADDR"); addr != "" {
		cfg.Server.Addr = addr
	}
	return cfg, nil
}

// findWebDir returns the first existing directory among the configured one,
// its parents' "web" and <dataDir>/web, or "" when none exist.
func findWebDir(configured, dataDir string) string {
	candidates := []string{configured, "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}
