// Package assets loads the optional voucher images (header logo and footer)
// and normalizes them to PNG for the PDF renderer.
package assets

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/webp"
)

// DefaultMaxWidth bounds the pixel width of embedded images.
const DefaultMaxWidth = 1600

// candidateExts are tried, in order, when the named file is missing.
var candidateExts = []string{".png", ".jpg", ".jpeg", ".webp"}

var errUnsupportedImage = errors.New("image must be png, jpeg, or webp")

// DirLoader reads images from a directory. Results, including misses, are
// cached for ttl so that replaced images are picked up without a restart.
type DirLoader struct {
	dir      string
	maxWidth int
	logger   *zap.Logger
	cache    *cache.Cache
}

// NewDirLoader creates a loader over dir. maxWidth <= 0 uses DefaultMaxWidth
// and ttl <= 0 caches for the life of the loader.
func NewDirLoader(dir string, maxWidth int, ttl time.Duration, logger *zap.Logger) *DirLoader {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	cleanup := 10 * time.Minute
	if ttl <= 0 {
		ttl = cache.NoExpiration
		cleanup = 0
	}
	return &DirLoader{
		dir:      dir,
		maxWidth: maxWidth,
		logger:   logger,
		cache:    cache.New(ttl, cleanup),
	}
}

// LoadAsset returns the PNG encoding of the named image.
func (l *DirLoader) LoadAsset(name string) ([]byte, bool) {
	if cached, ok := l.cache.Get(name); ok {
		data := cached.([]byte)
		return data, data != nil
	}

	data, err := l.load(name)
	if err != nil {
		l.logger.Warn("asset unavailable", zap.String("asset", name), zap.Error(err))
		l.cache.SetDefault(name, []byte(nil))
		return nil, false
	}
	l.cache.SetDefault(name, data)
	return data, true
}

func (l *DirLoader) load(name string) ([]byte, error) {
	if l.dir == "" {
		return nil, os.ErrNotExist
	}
	if filepath.Base(name) != name {
		return nil, fmt.Errorf("invalid asset name %q", name)
	}

	raw, err := os.ReadFile(filepath.Join(l.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		base := strings.TrimSuffix(name, filepath.Ext(name))
		for _, ext := range candidateExts {
			raw, err = os.ReadFile(filepath.Join(l.dir, base+ext))
			if err == nil {
				break
			}
		}
	}
	if err != nil {
		return nil, err
	}
	return Normalize(raw, l.maxWidth)
}

// Normalize decodes a png, jpeg or webp image, scales it down to maxWidth
// pixels when wider, and re-encodes it as PNG.
func Normalize(raw []byte, maxWidth int) ([]byte, error) {
	switch http.DetectContentType(raw) {
	case "image/png", "image/jpeg", "image/webp":
	default:
		return nil, errUnsupportedImage
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		decoded, decodeErr := webp.Decode(bytes.NewReader(raw))
		if decodeErr != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
		img = decoded
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, errors.New("invalid image dimensions")
	}

	if maxWidth > 0 && bounds.Dx() > maxWidth {
		height := bounds.Dy() * maxWidth / bounds.Dx()
		if height < 1 {
			height = 1
		}
		resized := image.NewNRGBA(image.Rect(0, 0, maxWidth, height))
		xdraw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, xdraw.Over, nil)
		img = resized
	}

	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return out.Bytes(), nil
}

// Nop never has an asset, so vouchers use their text fallbacks.
type Nop struct{}

func (Nop) LoadAsset(string) ([]byte, bool) { return nil, false }

// Map serves fixed in-memory assets.
type Map map[string][]byte

func (m Map) LoadAsset(name string) ([]byte, bool) {
	data, ok := m[name]
	return data, ok && len(data) > 0
}
