package renderer

import (
	"Walkthrough3D/internal/logger"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"sync"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

var ErrUnsupportedFormat = errors.New("unsupported image format")

// TextureStats provides debugging and profiling information
type TextureStats struct {
	TotalTextures  int
	CacheHits      int
	CacheMisses    int
	ActiveTextures int
	Uploaded       int
}

// TextureManager decodes textures once per path and shares them. Decoding is
// safe from any goroutine; GL upload and deletion happen on the render thread.
type TextureManager struct {
	textures map[string]*Texture // path -> decoded texture
	refCount map[string]int      // path -> reference count
	mu       sync.RWMutex
	stats    TextureStats

	// FlipY stores images bottom row first, matching GL texture origin.
	FlipY bool

	// deleteFn frees GL storage; nil when no GL context exists.
	deleteFn func(id uint32)
}

func NewTextureManager() *TextureManager {
	return &TextureManager{
		textures: make(map[string]*Texture),
		refCount: make(map[string]int),
		FlipY:    true,
	}
}

// Load returns the cached texture for filePath or decodes it. Every
// successful call adds a reference.
func (tm *TextureManager) Load(name, filePath string) (*Texture, error) {
	tm.mu.Lock()
	if tex, exists := tm.textures[filePath]; exists {
		tm.refCount[filePath]++
		tm.stats.CacheHits++
		tm.mu.Unlock()

		logger.Log.Debug("Texture cache hit",
			zap.String("path", filePath),
			zap.Int("refCount", tm.refCount[filePath]))
		return tex, nil
	}
	tm.stats.CacheMisses++
	flip := tm.FlipY
	tm.mu.Unlock()

	rgba, err := DecodeImageFile(filePath, flip)
	if err != nil {
		return nil, err
	}

	tm.mu.Lock()
	defer tm.mu.Unlock()
	// Another goroutine may have decoded the same file meanwhile.
	if tex, exists := tm.textures[filePath]; exists {
		tm.refCount[filePath]++
		return tex, nil
	}
	tex := &Texture{Name: name, Path: filePath, Image: rgba}
	tm.textures[filePath] = tex
	tm.refCount[filePath] = 1
	tm.stats.TotalTextures++

	logger.Log.Debug("Texture decoded and cached",
		zap.String("name", name),
		zap.String("path", filePath),
		zap.Int("width", rgba.Rect.Dx()),
		zap.Int("height", rgba.Rect.Dy()))

	return tex, nil
}

// DecodeImageFile reads a PNG, JPEG, BMP or WebP file into RGBA.
func DecodeImageFile(filePath string, flipY bool) (*image.RGBA, error) {
	imgFile, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer imgFile.Close()

	img, _, err := image.Decode(imgFile)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%s: %w", filePath, ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return ToRGBA(img, flipY), nil
}

// ToRGBA copies img into a tightly packed RGBA image, optionally flipped.
func ToRGBA(img image.Image, flipY bool) *image.RGBA {
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	if flipY {
		rowLen := rgba.Rect.Dx() * 4
		tmp := make([]byte, rowLen)
		for top, bottom := 0, rgba.Rect.Dy()-1; top < bottom; top, bottom = top+1, bottom-1 {
			a := rgba.Pix[top*rgba.Stride : top*rgba.Stride+rowLen]
			z := rgba.Pix[bottom*rgba.Stride : bottom*rgba.Stride+rowLen]
			copy(tmp, a)
			copy(a, z)
			copy(z, tmp)
		}
	}
	return rgba
}

// Release drops one reference. The texture is evicted, and its GL storage
// freed, when the count reaches zero.
func (tm *TextureManager) Release(filePath string) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	refCount, exists := tm.refCount[filePath]
	if !exists {
		logger.Log.Warn("Attempted to release unknown texture",
			zap.String("path", filePath))
		return
	}

	refCount--
	tm.refCount[filePath] = refCount
	if refCount > 0 {
		return
	}

	tex := tm.textures[filePath]
	tm.freeLocked(tex)
	delete(tm.textures, filePath)
	delete(tm.refCount, filePath)

	logger.Log.Debug("Texture freed", zap.String("path", filePath))
}

func (tm *TextureManager) freeLocked(tex *Texture) {
	if tex == nil || tex.ID == 0 {
		return
	}
	if tm.deleteFn != nil {
		tm.deleteFn(tex.ID)
	}
	tex.ID = 0
	tm.stats.Uploaded--
}

// markUploaded records a texture that received GL storage.
func (tm *TextureManager) markUploaded() {
	tm.mu.Lock()
	tm.stats.Uploaded++
	tm.mu.Unlock()
}

// GetStats returns current texture manager statistics
func (tm *TextureManager) GetStats() TextureStats {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	stats := tm.stats
	stats.ActiveTextures = len(tm.textures)
	return stats
}

// LogStats logs current texture statistics
func (tm *TextureManager) LogStats() {
	stats := tm.GetStats()
	hitRate := 0.0
	if total := stats.CacheHits + stats.CacheMisses; total > 0 {
		hitRate = float64(stats.CacheHits) / float64(total)
	}
	logger.Log.Info("Texture Manager Stats",
		zap.Int("totalTextures", stats.TotalTextures),
		zap.Int("activeTextures", stats.ActiveTextures),
		zap.Int("uploaded", stats.Uploaded),
		zap.Int("cacheHits", stats.CacheHits),
		zap.Int("cacheMisses", stats.CacheMisses),
		zap.Float64("hitRate", hitRate))
}

// Clear releases all textures.
func (tm *TextureManager) Clear() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for _, tex := range tm.textures {
		tm.freeLocked(tex)
	}
	tm.textures = make(map[string]*Texture)
	tm.refCount = make(map[string]int)

	logger.Log.Info("Texture manager cleared")
}
