package loader

import (
	"Walkthrough3D/internal/logger"
	"Walkthrough3D/internal/materials"
	"Walkthrough3D/internal/renderer"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Asset is a model file and where to place it in the world.
type Asset struct {
	Name      string
	Path      string
	Scale     float32
	Position  mgl32.Vec3
	RotationY float32 // radians
}

// Place applies the asset placement to its root node.
func (a Asset) Place(root *renderer.Node) {
	scale := a.Scale
	if scale == 0 {
		scale = 1
	}
	root.SetScale(scale, scale, scale)
	root.SetPosition(a.Position[0], a.Position[1], a.Position[2])
	root.SetRotationY(a.RotationY)
}

type Options struct {
	TextureWorkers int
	SceneWorkers   int
}

// Loader decodes assets and textures on worker pools and publishes results
// through Pending values. Textures and scenes use separate pools so a scene
// task waiting on its textures never starves them.
type Loader struct {
	ctx      context.Context
	cancel   context.CancelFunc
	textures pond.Pool
	scenes   pond.Pool
	manager  *renderer.TextureManager
	opts     Options

	mu          sync.Mutex
	decoders    map[string]PrimitiveDecoder
	outstanding map[uint64]func()
	nextID      uint64
	closed      atomic.Bool
}

func New(ctx context.Context, manager *renderer.TextureManager, opts Options) *Loader {
	if opts.TextureWorkers <= 0 {
		opts.TextureWorkers = 4
	}
	if opts.SceneWorkers <= 0 {
		opts.SceneWorkers = 2
	}
	if manager == nil {
		manager = renderer.NewTextureManager()
	}
	ctx, cancel := context.WithCancel(ctx)
	l := &Loader{
		ctx:         ctx,
		cancel:      cancel,
		textures:    pond.NewPool(opts.TextureWorkers, pond.WithContext(ctx)),
		scenes:      pond.NewPool(opts.SceneWorkers, pond.WithContext(ctx)),
		manager:     manager,
		opts:        opts,
		decoders:    map[string]PrimitiveDecoder{},
		outstanding: map[uint64]func(){},
	}
	return l
}

// RegisterDecoder enables glTF files that need dec.Extension().
func (l *Loader) RegisterDecoder(dec PrimitiveDecoder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.decoders[dec.Extension()] = dec
	logger.Log.Info("Primitive decoder registered", zap.String("extension", dec.Extension()))
}

func (l *Loader) decoderSnapshot() map[string]PrimitiveDecoder {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]PrimitiveDecoder, len(l.decoders))
	for k, v := range l.decoders {
		out[k] = v
	}
	return out
}

// track registers p so Close can resolve it with context.Canceled.
func track[T any](l *Loader, p *Pending[T]) (untrack func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.outstanding[id] = func() {
		var zero T
		p.resolve(zero, context.Canceled)
	}
	return func() {
		l.mu.Lock()
		delete(l.outstanding, id)
		l.mu.Unlock()
	}
}

// LoadTextures decodes every texture in the table's catalog from dir. The
// set always resolves; keys whose file failed are absent and the error
// aggregates every failure.
func (l *Loader) LoadTextures(table *materials.Table, dir string) *Pending[materials.TextureSet] {
	p := newPending[materials.TextureSet]()
	if l.closed.Load() {
		p.resolve(nil, context.Canceled)
		return p
	}
	untrack := track(l, p)

	var mu sync.Mutex
	set := materials.TextureSet{}
	var errs error

	group := l.textures.NewGroup()
	for key, file := range table.Textures {
		key, path := key, filepath.Join(dir, file)
		group.Submit(func() {
			if l.ctx.Err() != nil {
				return
			}
			tex, err := l.manager.Load(key, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Log.Error("Failed to load texture",
					zap.String("texture", key), zap.String("path", path), zap.Error(err))
				errs = multierr.Append(errs, fmt.Errorf("texture %s: %w", key, err))
				return
			}
			set[key] = tex
		})
	}

	go func() {
		defer untrack()
		if err := group.Wait(); err != nil || l.ctx.Err() != nil {
			p.resolve(nil, context.Canceled)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		logger.Log.Info("Textures loaded",
			zap.Int("loaded", len(set)),
			zap.Int("failed", len(multierr.Errors(errs))))
		p.resolve(set, errs)
	}()
	return p
}

// ResolveTextures loads and waits for the textures of table.
func (l *Loader) ResolveTextures(ctx context.Context, table *materials.Table, dir string) (materials.TextureSet, error) {
	return l.LoadTextures(table, dir).Wait(ctx)
}

// ReleaseTextures drops the references set took in the texture manager.
// Textures no other set holds are evicted. Call it from the render thread
// once no material uses set.
func (l *Loader) ReleaseTextures(set materials.TextureSet) {
	for _, tex := range set {
		if tex != nil {
			l.manager.Release(tex.Path)
		}
	}
}

// LoadScene decodes asset, places it, waits for textures, binds materials
// and then publishes the root. Nothing is published before binding.
func (l *Loader) LoadScene(asset Asset, table *materials.Table, textures *Pending[materials.TextureSet]) *Pending[*renderer.Node] {
	p := newPending[*renderer.Node]()
	if l.closed.Load() {
		p.resolve(nil, context.Canceled)
		return p
	}
	untrack := track(l, p)

	task := l.scenes.Submit(func() {
		root, err := l.loadScene(asset, table, textures)
		if err != nil {
			if l.ctx.Err() == nil {
				logger.Log.Error("Failed to load asset",
					zap.String("asset", asset.Name), zap.String("path", asset.Path), zap.Error(err))
			}
			p.resolve(nil, err)
			return
		}
		p.resolve(root, nil)
	})

	go func() {
		defer untrack()
		if err := task.Wait(); err != nil {
			// The pool refused or aborted the task.
			p.resolve(nil, err)
		}
	}()
	return p
}

func (l *Loader) loadScene(asset Asset, table *materials.Table, textures *Pending[materials.TextureSet]) (*renderer.Node, error) {
	root, err := l.decode(asset.Path)
	if err != nil {
		return nil, err
	}
	root.Name = asset.Name
	asset.Place(root)

	set, err := textures.Wait(l.ctx)
	if ctxErr := l.ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil {
		// Already reported per file; bind whatever decoded.
		logger.Log.Debug("Binding with a partial texture set", zap.String("asset", asset.Name))
	}

	stats := materials.Bind(root, table, set)
	root.UpdateWorldMatrix()
	logger.Log.Info("Asset loaded",
		zap.String("asset", asset.Name),
		zap.Int("meshes", stats.Meshes),
		zap.Int("matched", stats.Matched),
		zap.Int("unmatched", stats.Unmatched),
		zap.Int("missingTextures", stats.MissingTextures))
	return root, nil
}

func (l *Loader) decode(path string) (*renderer.Node, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".glb", ".gltf":
		return decodeGLTF(l.ctx, path, l.decoderSnapshot())
	case ".obj":
		return decodeOBJ(path)
	}
	return nil, fmt.Errorf("%s: %w", path, renderer.ErrUnsupportedFormat)
}

// Close cancels outstanding loads. Their results resolve with
// context.Canceled.
func (l *Loader) Close() {
	if !l.closed.CompareAndSwap(false, true) {
		return
	}
	l.cancel()

	l.mu.Lock()
	cancels := make([]func(), 0, len(l.outstanding))
	for _, c := range l.outstanding {
		cancels = append(cancels, c)
	}
	l.mu.Unlock()
	for _, c := range cancels {
		c()
	}

	l.textures.StopAndWait()
	l.scenes.StopAndWait()
}
