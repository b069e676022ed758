// Package game implements the main loop: it loads the scene manifest, ticks
// the scripts and draws every frame.
package game

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ChrisPortokalis/EngineBase/internal/assets"
	"github.com/ChrisPortokalis/EngineBase/internal/config"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/audio"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/input"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/renderer"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/texture"
	"github.com/ChrisPortokalis/EngineBase/internal/engine/window"
	"github.com/ChrisPortokalis/EngineBase/internal/logger"
	"github.com/ChrisPortokalis/EngineBase/internal/manifest"
	"github.com/ChrisPortokalis/EngineBase/internal/scene"
	"github.com/ChrisPortokalis/EngineBase/internal/script"
)

// Emitter distances of instance sounds.
const (
	soundMinDistance = 0
	soundMaxDistance = 20
)

const screenshotDir = "screenshots"

// Game is the main game instance.
type Game struct {
	cfg     *config.Config
	running bool

	window   *window.Window
	renderer *renderer.Renderer
	loader   *renderer.Loader
	store    *assets.Store
	input    *input.Input
	audio    *audio.Manager

	scene   *scene.Scene
	runner  *script.Runner
	control *script.ControlScript

	screenshot bool // capture after the next render
}

// New opens the window, initializes GL and audio and loads the scene.
func New(cfg *config.Config) (*Game, error) {
	logger.Info("initializing game",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
		zap.String("scene", cfg.Scene.Path),
	)

	g := &Game{cfg: cfg}

	var err error
	g.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
		Samples:    cfg.Window.Samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer AFTER window, since the OpenGL context must exist
	width, height := g.window.GetSize()
	g.renderer, err = renderer.New(renderer.Config{
		Width:   width,
		Height:  height,
		Samples: cfg.Window.Samples,
	})
	if err != nil {
		g.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	g.input = input.New()
	g.store = assets.NewStore(searchPath(cfg.Scene))
	g.loader = renderer.NewLoader(g.store, false)

	g.audio = audio.New()
	if err := g.audio.Init(); err != nil {
		logger.Warn("audio disabled", zap.Error(err))
	}
	g.audio.SetMasterVolume(cfg.Audio.MasterVolume)
	g.audio.SetBGMVolume(cfg.Audio.MusicVolume)
	g.audio.SetSFXVolume(cfg.Audio.SFXVolume)
	g.audio.SetMuted(cfg.Audio.Muted)

	if err := g.load(float32(width), float32(height)); err != nil {
		g.Close()
		return nil, err
	}

	logger.Info("game initialized successfully")
	return g, nil
}

// searchPath lists the configured asset directories below the manifest's own
// directory, which therefore wins.
func searchPath(sc config.SceneConfig) *assets.SearchPath {
	p := assets.NewSearchPath(sc.SearchPaths...)
	p.Add(filepath.Dir(sc.Path))
	return p
}

// load builds the scene. Asset problems are logged and replaced by
// placeholders; only an unreadable manifest fails.
func (g *Game) load(width, height float32) error {
	m, err := manifest.Load(g.cfg.Scene.Path)
	if err != nil {
		return fmt.Errorf("failed to load scene: %w", err)
	}

	controls := ControlConfig(g.cfg.Controls)
	res, err := manifest.Build(m, manifest.Env{
		Loader:   g.loader,
		Keyboard: g.input.Keyboard(),
		Width:    width,
		Height:   height,
		Controls: &controls,
	})
	if err != nil {
		logger.Warn("scene loaded with problems",
			zap.String("scene", g.cfg.Scene.Path),
			zap.Int("count", len(multierr.Errors(err))),
		)
	}

	g.scene = res.Scene
	g.runner = res.Runner
	g.control = res.Control
	if g.control == nil {
		g.control = script.NewControlScript(controls, g.input.Keyboard(), width, height)
		g.runner.AddControl(g.control)
	}
	g.runner.SetListener(g.audio, res.Listener)

	g.startSounds(res)

	logger.Info("scene loaded",
		zap.String("scene", g.cfg.Scene.Path),
		zap.Int("nodes", g.scene.NodeCount()),
		zap.Int("lights", g.scene.Lights.Len()),
		zap.Int("cameras", g.scene.CameraCount()),
		zap.Int("scripts", len(g.runner.Moves())),
	)
	return nil
}

func (g *Game) startSounds(res *manifest.Result) {
	if !g.audio.IsInitialized() {
		return
	}
	if len(res.Music) > 0 {
		if err := g.audio.PlayBGM(res.Music, res.Scene.Music, true); err != nil {
			logger.Warn("failed to play music", zap.String("file", res.Scene.Music), zap.Error(err))
		}
	}
	for _, snd := range res.Sounds {
		if len(snd.Data) == 0 {
			continue
		}
		if _, err := g.audio.AddEmitter(snd.Node, snd.Data, snd.Position, soundMinDistance, soundMaxDistance); err != nil {
			logger.Warn("failed to start sound", zap.String("node", snd.Node), zap.String("file", snd.File), zap.Error(err))
		}
	}
}

// ControlConfig turns the app's control settings into the control script
// defaults. Zero steps keep the stock values.
func ControlConfig(c config.ControlsConfig) script.ControlConfig {
	cfg := script.DefaultControlConfig()
	if mode, err := script.ParsePersonMode(c.Mode); err == nil {
		cfg.Mode = mode
	} else if c.Mode != "" {
		logger.Warn("unknown control mode", zap.String("mode", c.Mode))
	}
	if c.MoveStep != 0 {
		cfg.MoveStep = c.MoveStep
	}
	if c.StrafeStep != 0 {
		cfg.StrafeStep = c.StrafeStep
	}
	if c.PitchStep != 0 {
		cfg.PitchStep = c.PitchStep
	}
	if c.YawStep != 0 {
		cfg.YawStep = c.YawStep
	}
	return cfg
}

// Run starts the main game loop.
func (g *Game) Run() error {
	g.running = true

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting game loop")

	for g.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		// 1. Process input
		if g.input.Update() {
			g.running = false
			break
		}

		for _, event := range g.input.Events() {
			switch event.Type {
			case input.EventWindowResize:
				g.renderer.Resize(event.Width, event.Height)
				g.control.SetViewport(float32(event.Width), float32(event.Height))
			case input.EventKeyDown:
				switch event.Key {
				case input.KeyEscape:
					g.running = false
				case input.KeyF12:
					g.screenshot = true
				}
			}
		}

		// 2. Advance scripts, world transforms and particles
		g.runner.Tick(float32(dt))

		// 3. Render
		g.render()
		if g.screenshot {
			g.screenshot = false
			g.saveScreenshot()
		}

		// 4. Present (swap buffers)
		g.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

// render draws the current frame.
func (g *Game) render() {
	cam := g.scene.Camera()
	g.scene.Lights.FollowCamera(cam.Eye, cam.Forward())

	g.renderer.Begin(g.scene.Background)
	g.renderer.UploadLights(g.scene.Lights)
	g.scene.Draw(g.renderer)
	for _, e := range g.runner.Emitters() {
		e.Draw(g.renderer, cam)
	}
}

func (g *Game) saveScreenshot() {
	img, err := g.renderer.ReadFrame()
	if err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	path := texture.ScreenshotName(screenshotDir, "enginebase", time.Now())
	if err := texture.WritePNG(path, img); err != nil {
		logger.Warn("screenshot failed", zap.Error(err))
		return
	}
	logger.Info("screenshot saved", zap.String("path", path))
}

// Close cleans up game resources.
func (g *Game) Close() {
	logger.Info("closing game")

	if g.audio != nil && g.audio.IsInitialized() {
		g.audio.Close()
	}
	if g.loader != nil {
		g.loader.Close()
	}
	if g.store != nil {
		g.store.Close()
	}
	if g.renderer != nil {
		g.renderer.Close()
	}
	if g.window != nil {
		g.window.Close()
	}
}
