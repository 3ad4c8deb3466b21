package editor

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-editor/engine/camera"
	"github.com/Carmen-Shannon/oxy-editor/engine/profiler"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
	"github.com/Carmen-Shannon/oxy-editor/engine/serializer"
	"github.com/Carmen-Shannon/oxy-editor/engine/texture"
)

// PickResult is the answer to a pick request.
type PickResult struct {
	Node    scene.NodeID
	Feature scene.Feature
	Hit     bool
}

// Editor owns the frame loop. The scene, its caches and the serializer are touched only from the
// loop; other goroutines talk to it through Submit and RequestPick.
type Editor interface {
	// Submit queues a command for the next frame. Safe for concurrent use.
	//
	// Parameters:
	//   - cmd: the command
	//
	// Returns:
	//   - <-chan Result: receives exactly one result once the command has run
	Submit(cmd Command) <-chan Result

	// RequestPick queues a pick that is resolved against the next frame drawn. Safe for concurrent use.
	//
	// Parameters:
	//   - coord: position in window coordinates, origin top-left
	//   - window: window size in window coordinates
	//
	// Returns:
	//   - <-chan PickResult: receives exactly one result after the next draw
	RequestPick(coord, window image.Point) <-chan PickResult

	// Frame runs one iteration of the loop: apply queued commands, hand over finished texture
	// loads, run scripts, draw, then answer picks.
	//
	// Parameters:
	//   - dt: elapsed time since the last frame in seconds
	//
	// Returns:
	//   - scene.DrawStats: what was drawn
	//   - error: error if the backend failed the frame
	Frame(dt float32) (scene.DrawStats, error)

	// Run calls Frame at the configured frame rate until ctx is done or Quit is called.
	//
	// Returns:
	//   - error: the first frame error, a recovered panic, or nil on a clean stop
	Run(ctx context.Context) error

	// SetFrameRate changes the frame rate, immediately if the loop is running.
	//
	// Parameters:
	//   - fps: frames per second; values <= 0 mean 60
	SetFrameRate(fps float64)

	// Quit stops Run. Safe to call multiple times.
	Quit()

	// Scene returns the edited scene.
	Scene() scene.Scene

	// Serializer returns the document binding of the scene.
	Serializer() serializer.Serializer

	// Camera returns the editor camera.
	Camera() camera.Camera

	// Close stops Run and releases what Open created, in reverse order of creation. Call it once
	// Run has returned.
	Close()
}

type pending struct {
	cmd   Command
	reply chan Result
}

type pickRequest struct {
	coord, window image.Point
	reply         chan PickResult
}

type editor struct {
	scene      scene.Scene
	serializer serializer.Serializer
	camera     camera.Camera
	textures   texture.Library
	watcher    *texture.Watcher
	profiler   *profiler.Profiler
	clearColor [4]float32
	logger     *slog.Logger

	mu       sync.Mutex
	commands []pending
	picks    []pickRequest

	frameRate       time.Duration
	frameRateChange chan time.Duration
	quitChannel     chan struct{}
	quitOnce        sync.Once

	closers   []func()
	closeOnce sync.Once
}

var _ Editor = &editor{}

// NewEditor creates an editor around a scene and its serializer.
//
// Parameters:
//   - sc: the scene
//   - ser: the serializer bound to sc
//   - cam: the camera frames are drawn from
//   - options: variadic list of EditorBuilderOption functions
//
// Returns:
//   - Editor: the editor
func NewEditor(sc scene.Scene, ser serializer.Serializer, cam camera.Camera, options ...EditorBuilderOption) Editor {
	if sc == nil || ser == nil || cam == nil {
		panic("editor: NewEditor requires a scene, a serializer and a camera")
	}
	e := &editor{
		scene:           sc,
		serializer:      ser,
		camera:          cam,
		clearColor:      [4]float32{0, 0, 0, 1},
		logger:          slog.Default(),
		frameRate:       time.Second / 60,
		frameRateChange: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *editor) Scene() scene.Scene {
	return e.scene
}

func (e *editor) Serializer() serializer.Serializer {
	return e.serializer
}

func (e *editor) Camera() camera.Camera {
	return e.camera
}

func (e *editor) Submit(cmd Command) <-chan Result {
	reply := make(chan Result, 1)
	e.mu.Lock()
	e.commands = append(e.commands, pending{cmd: cmd, reply: reply})
	e.mu.Unlock()
	return reply
}

func (e *editor) RequestPick(coord, window image.Point) <-chan PickResult {
	reply := make(chan PickResult, 1)
	e.mu.Lock()
	e.picks = append(e.picks, pickRequest{coord: coord, window: window, reply: reply})
	e.mu.Unlock()
	return reply
}

func (e *editor) Frame(dt float32) (scene.DrawStats, error) {
	e.mu.Lock()
	commands := e.commands
	e.commands = nil
	e.mu.Unlock()

	for _, p := range commands {
		r := p.cmd.apply(e.serializer)
		if r.Err != nil {
			e.logger.Warn("command failed", "command", fmt.Sprintf("%T", p.cmd), "error", r.Err)
		}
		p.reply <- r
	}

	if e.textures != nil {
		if e.watcher != nil {
			e.watcher.Dispatch(e.textures)
		}
		e.textures.Poll()
	}

	e.scene.Update(dt)
	stats, err := e.scene.Draw(e.camera.View(e.clearColor))

	// Picks queued during the draw wait for the next frame.
	e.mu.Lock()
	picks := e.picks
	e.picks = nil
	e.mu.Unlock()
	for _, p := range picks {
		var r PickResult
		if err == nil {
			r.Node, r.Feature, r.Hit = e.scene.Pick(p.coord, p.window)
		}
		p.reply <- r
	}

	if err != nil {
		return stats, err
	}
	if e.profiler != nil {
		e.profiler.Tick(stats)
	}
	return stats, nil
}

func (e *editor) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("frame loop recovered from panic", "panic", r)
			err = fmt.Errorf("frame loop panic: %v", r)
		}
	}()

	ticker := time.NewTicker(e.frameRate)
	defer ticker.Stop()
	lastFrame := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.quitChannel:
			return nil
		case rate := <-e.frameRateChange:
			e.frameRate = rate
			ticker.Reset(rate)
		case now := <-ticker.C:
			dt := float32(now.Sub(lastFrame).Seconds())
			lastFrame = now
			if _, err := e.Frame(dt); err != nil {
				return err
			}
		}
	}
}

func (e *editor) SetFrameRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	rate := time.Duration(float64(time.Second) / fps)

	// Replace any pending change that the loop has not picked up yet.
	select {
	case <-e.frameRateChange:
	default:
	}
	select {
	case e.frameRateChange <- rate:
	default:
	}
}

func (e *editor) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *editor) Close() {
	e.Quit()
	e.closeOnce.Do(func() {
		for i := len(e.closers) - 1; i >= 0; i-- {
			e.closers[i]()
		}
	})
}
