package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/cache"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
)

func encodePNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fixture struct {
	lib      Library
	textures cache.Cache[renderer.Texture]
	backend  *renderer.NullBackend
}

func newFixture(t *testing.T, opts ...LibraryBuilderOption) *fixture {
	t.Helper()
	backend := renderer.NewNullBackend()
	textures := cache.NewCache(cache.WithEvictFunc(func(_ string, tex renderer.Texture) { backend.ReleaseTexture(tex) }))
	lib := NewLibrary(textures, backend, opts...)
	t.Cleanup(lib.Close)
	return &fixture{lib: lib, textures: textures, backend: backend}
}

// settle polls until nothing is pending and returns the number of uploads.
func settle(t *testing.T, lib Library) int {
	t.Helper()
	uploaded := 0
	deadline := time.Now().Add(5 * time.Second)
	for {
		uploaded += lib.Poll()
		if lib.Pending() == 0 {
			return uploaded
		}
		if time.Now().After(deadline) {
			t.Fatalf("texture loads still pending after 5s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAcquireLoadsAsynchronously(t *testing.T) {
	fsys := fstest.MapFS{"img/red.png": {Data: encodePNG(t, 4, 2, color.RGBA{255, 0, 0, 255})}}
	f := newFixture(t, WithFS(fsys))

	h, ok := f.lib.Acquire("img/red.png")
	assert.False(t, ok)
	assert.Nil(t, h)
	assert.Equal(t, 1, f.lib.Pending())

	// A second miss while loading does not queue another decode.
	_, ok = f.lib.Acquire("img/red.png")
	assert.False(t, ok)
	assert.Equal(t, 1, f.lib.Pending())

	assert.Equal(t, 1, settle(t, f.lib))
	h, ok = f.lib.Acquire("img/red.png")
	require.True(t, ok)
	assert.Equal(t, "img/red.png", h.Key())
	assert.Equal(t, 4, h.Payload().Width)
	assert.Equal(t, 2, h.Payload().Height)
	assert.Equal(t, 1, f.textures.RefCount("img/red.png"))

	key, ok := f.lib.ContentKey("img/red.png")
	require.True(t, ok)
	assert.Equal(t, KeyForBytes(fsys["img/red.png"].Data), key)

	require.NoError(t, h.Release())
	assert.False(t, f.textures.Contains("img/red.png"))
	assert.Zero(t, f.backend.LiveTextures())
}

func TestFailedLoadsAreNotRetried(t *testing.T) {
	fsys := fstest.MapFS{"broken.png": {Data: []byte("not an image")}}
	f := newFixture(t, WithFS(fsys))

	f.lib.Request("missing.png")
	f.lib.Request("broken.png")
	assert.Zero(t, settle(t, f.lib))

	assert.ErrorIs(t, f.lib.Failed("missing.png"), common.ErrMissingResource)
	assert.Error(t, f.lib.Failed("broken.png"))

	_, ok := f.lib.Acquire("missing.png")
	assert.False(t, ok)
	assert.Zero(t, f.lib.Pending())

	// Fixing the file and reloading recovers.
	fsys["broken.png"] = &fstest.MapFile{Data: encodePNG(t, 1, 1, color.White)}
	f.lib.Reload("broken.png")
	assert.Equal(t, 1, settle(t, f.lib))
	assert.NoError(t, f.lib.Failed("broken.png"))
	h, ok := f.lib.Acquire("broken.png")
	require.True(t, ok)
	require.NoError(t, h.Release())
}

func TestReloadReplacesChangedContent(t *testing.T) {
	fsys := fstest.MapFS{"a.png": {Data: encodePNG(t, 2, 2, color.Black)}}
	f := newFixture(t, WithFS(fsys))

	f.lib.Request("a.png")
	settle(t, f.lib)
	first, ok := f.lib.Acquire("a.png")
	require.True(t, ok)

	// Same bytes: nothing is uploaded and the held handle stays live.
	f.lib.Reload("a.png")
	assert.Zero(t, settle(t, f.lib))
	assert.True(t, first.Live())

	fsys["a.png"] = &fstest.MapFile{Data: encodePNG(t, 8, 8, color.White)}
	f.lib.Reload("a.png")
	assert.Equal(t, 1, settle(t, f.lib))
	assert.False(t, first.Live())

	second, ok := f.lib.Acquire("a.png")
	require.True(t, ok)
	assert.NotEqual(t, first.Generation(), second.Generation())
	assert.Equal(t, 8, second.Payload().Width)

	require.NoError(t, first.Release())
	require.NoError(t, second.Release())
	assert.Zero(t, f.backend.LiveTextures())
}

func TestReloadIgnoresUnknownPaths(t *testing.T) {
	f := newFixture(t, WithFS(fstest.MapFS{}))
	f.lib.Reload("never-requested.png")
	assert.Zero(t, f.lib.Pending())
}

func TestKeyForBytes(t *testing.T) {
	a := KeyForBytes([]byte("a"))
	assert.Equal(t, a, KeyForBytes([]byte("a")))
	assert.NotEqual(t, a, KeyForBytes([]byte("b")))
	assert.Len(t, a, len("blake3:")+64)
}

func TestWatcherReloadsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tex", "w.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0o755))
	require.NoError(t, os.WriteFile(file, encodePNG(t, 2, 2, color.Black), 0o644))

	f := newFixture(t, WithRoot(dir))
	w, err := NewWatcher(dir, nil)
	require.NoError(t, err)
	defer w.Close()

	f.lib.Request("tex/w.png")
	settle(t, f.lib)
	first, ok := f.lib.Acquire("tex/w.png")
	require.True(t, ok)
	defer first.Release()
	require.NoError(t, w.Watch("tex/w.png"))

	require.NoError(t, os.WriteFile(file, encodePNG(t, 4, 4, color.White), 0o644))

	deadline := time.Now().Add(5 * time.Second)
	for first.Live() {
		w.Dispatch(f.lib)
		f.lib.Poll()
		if time.Now().After(deadline) {
			t.Fatalf("texture was not reloaded after the file changed")
		}
		time.Sleep(10 * time.Millisecond)
	}
	settle(t, f.lib)

	second, ok := f.lib.Acquire("tex/w.png")
	require.True(t, ok)
	assert.Equal(t, 4, second.Payload().Width)
	require.NoError(t, second.Release())
}

func TestImportSharesIdenticalBytes(t *testing.T) {
	f := newFixture(t, WithFS(fstest.MapFS{}))
	data := encodePNG(t, 3, 3, color.White)

	key := f.lib.Import(data)
	assert.Equal(t, KeyForBytes(data), key)
	assert.Equal(t, key, f.lib.Import(data))
	assert.Equal(t, 1, settle(t, f.lib))

	h, ok := f.lib.Acquire(key)
	require.True(t, ok)
	assert.Equal(t, 3, h.Payload().Width)
	assert.Equal(t, key, f.lib.Import(data))
	assert.Zero(t, f.lib.Pending())
	require.NoError(t, h.Release())
}
