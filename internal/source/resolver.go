package source

import (
	"encoding/base64"
	"fmt"
	"image"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"
)

// DefaultDPI is used for PDF pages when an item does not set one.
const DefaultDPI = 150

// Resolver turns media references (paths or data URIs) into decoded
// images, caching both the decoded page and every fitted size asked for.
type Resolver struct {
	fs afero.Fs

	mu     sync.RWMutex
	images map[string]image.Image
	group  singleflight.Group
}

func NewResolver(fs afero.Fs) *Resolver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Resolver{fs: fs, images: make(map[string]image.Image)}
}

// Open returns a Source for ref. The caller closes it.
func (r *Resolver) Open(ref string) (Source, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty media reference")
	}
	if strings.HasPrefix(ref, "data:") {
		data, mime, err := DecodeDataURI(ref)
		if err != nil {
			return nil, err
		}
		if mime == "application/pdf" {
			return NewPDFSource(data)
		}
		return NewImageSource(data)
	}
	data, err := afero.ReadFile(r.fs, ref)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ref, err)
	}
	if strings.EqualFold(filepath.Ext(ref), ".pdf") {
		return NewPDFSource(data)
	}
	return NewImageSource(data)
}

// Image returns page `page` of ref rendered at dpi.
func (r *Resolver) Image(ref string, page, dpi int) (image.Image, error) {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	key := fmt.Sprintf("%s#%d@%d", ref, page, dpi)
	return r.cached(key, func() (image.Image, error) {
		src, err := r.Open(ref)
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return src.RenderPage(page, dpi)
	})
}

// Fitted returns the page scaled to exactly w×h pixels.
func (r *Resolver) Fitted(ref string, page, dpi, w, h int) (image.Image, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid target size %dx%d", w, h)
	}
	key := fmt.Sprintf("%s#%d@%d/%dx%d", ref, page, dpi, w, h)
	return r.cached(key, func() (image.Image, error) {
		img, err := r.Image(ref, page, dpi)
		if err != nil {
			return nil, err
		}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Over, nil)
		return dst, nil
	})
}

func (r *Resolver) cached(key string, load func() (image.Image, error)) (image.Image, error) {
	r.mu.RLock()
	img, ok := r.images[key]
	r.mu.RUnlock()
	if ok {
		return img, nil
	}
	v, err, _ := r.group.Do(key, func() (any, error) {
		img, err := load()
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.images[key] = img
		r.mu.Unlock()
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// DecodeDataURI splits an RFC 2397 data URI into its payload and media type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("data URI without payload")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("data URI: %w", err)
		}
		return data, mime, nil
	}
	s, err := url.PathUnescape(payload)
	if err != nil {
		return nil, "", fmt.Errorf("data URI: %w", err)
	}
	return []byte(s), mime, nil
}
