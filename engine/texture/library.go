package texture

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/zeebo/blake3"

	"github.com/Carmen-Shannon/oxy-editor/common"
	"github.com/Carmen-Shannon/oxy-editor/engine/cache"
	"github.com/Carmen-Shannon/oxy-editor/engine/renderer"
	"github.com/Carmen-Shannon/oxy-editor/engine/scene"
)

// Library loads textures by path. Files are read and decoded on a worker pool; uploads and
// cache writes happen in Poll, on the frame loop. Every method must be called from the frame loop.
type Library interface {
	scene.TextureSource

	// Request starts loading a texture unless it is already loading, resident or known to fail.
	//
	// Parameters:
	//   - path: slash-separated path relative to the library root
	Request(path string)

	// Import decodes encoded image bytes held in memory. The texture is stored under the
	// content key of the bytes, so importing the same image twice shares one upload.
	//
	// Parameters:
	//   - data: PNG or JPEG bytes
	//
	// Returns:
	//   - string: the key features refer to the texture by
	Import(data []byte) string

	// Reload loads a texture again if it is resident or its last load failed. A file whose
	// content has not changed is not uploaded again.
	//
	// Parameters:
	//   - path: slash-separated path relative to the library root
	Reload(path string)

	// Poll uploads every finished decode without blocking.
	//
	// Returns:
	//   - int: the number of textures uploaded
	Poll() int

	// Pending returns the number of requests still decoding.
	Pending() int

	// Failed returns the error of the last failed load of a path, or nil.
	Failed(path string) error

	// ContentKey returns the content hash of the bytes a resident texture was decoded from.
	ContentKey(path string) (string, bool)

	// Close drops the handles the library still holds. Textures held by features stay resident
	// until those features release them.
	Close()
}

type decoded struct {
	path    string
	content string
	data    common.TextureData
	err     error
}

type library struct {
	textures cache.Cache[renderer.Texture]
	backend  renderer.Backend
	logger   *slog.Logger
	fsys     fs.FS
	root     string
	workers  int
	watcher  *Watcher

	pool    worker.DynamicWorkerPool
	results chan decoded
	taskID  int

	pending map[string]bool
	again   map[string]bool
	failed  map[string]error
	content map[string]string
	held    map[string]*cache.Handle[renderer.Texture]
}

var _ Library = &library{}

// NewLibrary creates a texture library writing into a texture cache.
//
// Parameters:
//   - textures: the cache entries are stored in, keyed by path
//   - backend: the backend textures are uploaded to
//   - options: variadic list of LibraryBuilderOption functions
//
// Returns:
//   - Library: the library
func NewLibrary(textures cache.Cache[renderer.Texture], backend renderer.Backend, options ...LibraryBuilderOption) Library {
	if textures == nil || backend == nil {
		panic("texture: NewLibrary requires a cache and a backend")
	}
	l := &library{
		textures: textures,
		backend:  backend,
		logger:   slog.Default(),
		root:     ".",
		workers:  2,
		results:  make(chan decoded, 64),
		pending:  make(map[string]bool),
		again:    make(map[string]bool),
		failed:   make(map[string]error),
		content:  make(map[string]string),
		held:     make(map[string]*cache.Handle[renderer.Texture]),
	}
	for _, opt := range options {
		opt(l)
	}
	if l.fsys == nil {
		l.fsys = os.DirFS(l.root)
	}
	l.pool = worker.NewDynamicWorkerPool(l.workers, 256, 1*time.Second)
	return l
}

const contentPrefix = "blake3:"

// KeyForBytes returns the content key of encoded image bytes.
func KeyForBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return contentPrefix + hex.EncodeToString(sum[:])
}

func (l *library) Acquire(p string) (*cache.Handle[renderer.Texture], bool) {
	if h, ok := l.held[p]; ok {
		delete(l.held, p)
		if h.Live() {
			return h, true
		}
		_ = h.Release()
	}
	if h, ok := l.textures.Get(p); ok {
		return h, true
	}
	l.Request(p)
	return nil, false
}

func (l *library) Request(p string) {
	if l.pending[p] || l.textures.Contains(p) || strings.HasPrefix(p, contentPrefix) {
		return
	}
	if _, ok := l.failed[p]; ok {
		return
	}
	if l.watcher != nil {
		if err := l.watcher.Watch(p); err != nil {
			l.logger.Warn("texture will not hot-reload", "path", p, "error", err)
		}
	}
	l.submit(p)
}

func (l *library) Import(data []byte) string {
	key := KeyForBytes(data)
	if l.pending[key] || l.textures.Contains(key) {
		return key
	}
	delete(l.failed, key)
	l.pending[key] = true
	results := l.results
	l.taskID++
	l.pool.SubmitTask(worker.Task{
		ID: l.taskID,
		Do: func() (any, error) {
			results <- decode(key, data)
			return nil, nil
		},
	})
	return key
}

func (l *library) Reload(p string) {
	if strings.HasPrefix(p, contentPrefix) {
		return
	}
	_, failed := l.failed[p]
	if !failed && !l.textures.Contains(p) {
		return
	}
	delete(l.failed, p)
	if l.pending[p] {
		l.again[p] = true
		return
	}
	l.submit(p)
}

func (l *library) submit(p string) {
	l.pending[p] = true
	fsys, results := l.fsys, l.results
	l.taskID++
	l.pool.SubmitTask(worker.Task{
		ID: l.taskID,
		Do: func() (any, error) {
			results <- load(fsys, p)
			return nil, nil
		},
	})
}

func load(fsys fs.FS, p string) decoded {
	data, err := fs.ReadFile(fsys, path.Clean(p))
	if err != nil {
		return decoded{path: p, err: fmt.Errorf("%w: texture %s: %w", common.ErrMissingResource, p, err)}
	}
	return decode(p, data)
}

func decode(p string, data []byte) decoded {
	img, err := common.DecodeImage(bytes.NewReader(data))
	if err != nil {
		return decoded{path: p, err: fmt.Errorf("texture %s: %w", p, err)}
	}
	return decoded{path: p, content: KeyForBytes(data), data: img}
}

func (l *library) Poll() int {
	uploaded := 0
	for {
		select {
		case r := <-l.results:
			if l.finish(r) {
				uploaded++
			}
		default:
			return uploaded
		}
	}
}

// finish records one decode result and uploads it.
func (l *library) finish(r decoded) bool {
	delete(l.pending, r.path)
	if l.again[r.path] {
		delete(l.again, r.path)
		defer l.submit(r.path)
	}

	if r.err != nil {
		l.failed[r.path] = r.err
		l.logger.Warn("texture load failed", "path", r.path, "error", r.err)
		return false
	}
	if l.content[r.path] == r.content && l.textures.Contains(r.path) {
		l.logger.Debug("texture unchanged", "path", r.path)
		return false
	}

	tex, err := l.backend.UploadTexture(r.data.Pixels, renderer.TextureFormatRGBA8, r.data.Width, r.data.Height)
	if err != nil {
		l.failed[r.path] = err
		l.logger.Warn("texture upload failed", "path", r.path, "error", err)
		return false
	}
	if old, ok := l.held[r.path]; ok {
		_ = old.Release()
	}
	l.held[r.path] = l.textures.Set(r.path, tex, cache.StateFinal, cache.PolicyReferenceCounted)
	l.content[r.path] = r.content
	l.logger.Debug("texture uploaded", "path", r.path, "width", tex.Width, "height", tex.Height, "content", r.content)
	return true
}

func (l *library) Pending() int {
	return len(l.pending)
}

func (l *library) Failed(p string) error {
	return l.failed[p]
}

func (l *library) ContentKey(p string) (string, bool) {
	if !l.textures.Contains(p) {
		return "", false
	}
	k, ok := l.content[p]
	return k, ok
}

func (l *library) Close() {
	for p, h := range l.held {
		_ = h.Release()
		delete(l.held, p)
	}
}
