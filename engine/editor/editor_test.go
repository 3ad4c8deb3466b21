package editor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-editor/engine/cache"
	"github.com/Carmen-Shannon/oxy-editor/engine/camera"
	"github.com/Carmen-Shannon/oxy-editor/engine/config"
	"github.com/Carmen-Shannon/oxy-editor/engine/document"
	"github.com/Carmen-Shannon/oxy-editor/engine/primitive"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
	"github.com/Carmen-Shannon/oxy-editor/engine/serializer"
)

const cubeScene = `
- scene:
    - child:
        - feature:
            - type: mesh
            - primitive.type: cube
`

func fullFrame(renderer.DrawCommand) image.Rectangle {
	return image.Rect(0, 0, 64, 64)
}

func newTestEditor(t *testing.T, options ...EditorBuilderOption) Editor {
	t.Helper()
	backend := renderer.NewNullBackend(
		renderer.WithFramebufferSize(64, 64),
		renderer.WithCoverage(fullFrame),
	)
	meshes := cache.NewCache(cache.WithEvictFunc(func(_ string, m renderer.Mesh) { backend.ReleaseMesh(m) }))
	shaders := cache.NewCache(cache.WithEvictFunc(func(_ string, s renderer.Shader) { backend.ReleaseShader(s) }))
	sc := scene.NewScene(backend, primitive.NewFactory(meshes, backend), shader.NewResolver(shaders, backend))
	return NewEditor(sc, serializer.NewSerializer(sc), camera.NewCamera(), options...)
}

func mustDecode(t *testing.T, text string) *document.Group {
	t.Helper()
	doc, err := document.Unmarshal([]byte(text))
	require.NoError(t, err)
	return doc
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatalf("no reply after 5s")
		var zero T
		return zero
	}
}

func TestFrameAppliesQueuedCommands(t *testing.T) {
	ed := newTestEditor(t)

	load := ed.Submit(LoadDocument{Doc: mustDecode(t, cubeScene)})
	select {
	case <-load:
		t.Fatal("command ran before the frame")
	default:
	}

	stats, err := ed.Frame(1.0 / 60)
	require.NoError(t, err)
	r := receive(t, load)
	assert.NoError(t, r.Err)
	assert.Empty(t, r.Diagnostics)
	assert.Equal(t, 1, stats.Drawn)

	child := ed.Scene().Children(ed.Scene().Root())[0]
	add := ed.Submit(AddNode{Parent: child, Local: scene.IdentityTransform()})
	remove := ed.Submit(RemoveNode{Node: child})
	_, err = ed.Frame(1.0 / 60)
	require.NoError(t, err)

	added := receive(t, add)
	require.NoError(t, added.Err)
	require.NoError(t, receive(t, remove).Err)
	assert.False(t, ed.Scene().Valid(added.Node))
	assert.Equal(t, 1, ed.Scene().Len())
	assert.Empty(t, ed.Serializer().Save().Groups(serializer.GroupScene)[0].Groups(serializer.GroupChild))
}

func TestSubmitIsSafeForConcurrentUse(t *testing.T) {
	ed := newTestEditor(t)
	root := ed.Scene().Root()

	const n = 16
	replies := make([]<-chan Result, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			replies[i] = ed.Submit(AddNode{Parent: root, Local: scene.IdentityTransform()})
		}()
	}
	wg.Wait()

	_, err := ed.Frame(0)
	require.NoError(t, err)
	for _, ch := range replies {
		assert.NoError(t, receive(t, ch).Err)
	}
	assert.Equal(t, n+1, ed.Scene().Len())
}

func TestFailedCommandDoesNotStopTheFrame(t *testing.T) {
	ed := newTestEditor(t)
	_ = ed.Submit(LoadDocument{Doc: mustDecode(t, cubeScene)})
	_, err := ed.Frame(0)
	require.NoError(t, err)

	child := ed.Scene().Children(ed.Scene().Root())[0]
	bad := ed.Submit(SetField{Target: serializer.NodeTarget(child), Field: serializer.FieldTransformation, Value: "nope"})
	stats, err := ed.Frame(0)
	require.NoError(t, err)
	assert.Error(t, receive(t, bad).Err)
	assert.Equal(t, 1, stats.Drawn)
}

func TestPickResolvesAgainstNextFrame(t *testing.T) {
	ed := newTestEditor(t)
	_ = ed.Submit(LoadDocument{Doc: mustDecode(t, cubeScene)})
	pick := ed.RequestPick(image.Pt(10, 10), image.Pt(64, 64))

	_, err := ed.Frame(0)
	require.NoError(t, err)
	r := receive(t, pick)
	require.True(t, r.Hit)
	assert.Equal(t, ed.Scene().Children(ed.Scene().Root())[0], r.Node)
	assert.IsType(t, &scene.MeshFeature{}, r.Feature)
}

func TestRunStopsOnQuit(t *testing.T) {
	ed := newTestEditor(t, WithFrameRate(500))
	done := make(chan error, 1)
	go func() { done <- ed.Run(context.Background()) }()

	r := receive(t, ed.Submit(LoadDocument{Doc: mustDecode(t, cubeScene)}))
	assert.Empty(t, r.Diagnostics)

	ed.SetFrameRate(1000)
	ed.Quit()
	ed.Quit()
	assert.NoError(t, receive(t, done))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ed := newTestEditor(t, WithFrameRate(500))
	root := ed.Scene().Root()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ed.Run(ctx) }()

	_ = receive(t, ed.Submit(AddNode{Parent: root, Local: scene.IdentityTransform()}))
	cancel()
	assert.NoError(t, receive(t, done))
}

func TestOpenLoadsTexturesAcrossFrames(t *testing.T) {
	dir := t.TempDir()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.Set(x, y, color.RGBA{0, 255, 0, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leaf.png"), buf.Bytes(), 0o644))

	cfg := config.Default()
	cfg.TextureRoot = dir
	cfg.Viewport = config.Viewport{Width: 64, Height: 48}
	ed, err := Open(cfg, nil)
	require.NoError(t, err)
	defer ed.Close()

	load := ed.Submit(LoadDocument{Doc: mustDecode(t, `
- scene:
    - child:
        - feature:
            - type: sprite
            - sprite.texture: leaf.png
            - sprite.size: "1"
`)})
	stats, err := ed.Frame(0)
	require.NoError(t, err)
	assert.Empty(t, receive(t, load).Diagnostics)
	// The decode runs on a worker, so the sprite may already be drawn.
	assert.Equal(t, 1, stats.Drawn+stats.Skipped[scene.SkipNotReady])

	deadline := time.Now().Add(5 * time.Second)
	for stats.Drawn == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("sprite texture never became ready")
		}
		time.Sleep(5 * time.Millisecond)
		stats, err = ed.Frame(0)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, stats.Drawn)
}

func TestOpenRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "vulkan"
	_, err := Open(cfg, nil)
	assert.Error(t, err)
}
