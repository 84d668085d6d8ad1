// Package imageview implements the Image Viewer screen: decoding an
// image file and rendering it to a terminal-graphics escape sequence.
// Decoding itself is the named "image decoder" external collaborator
// (stdlib image.Decode plus its registered format decoders); this
// package owns only the cell-sized terminal rendering and its cache.
package imageview

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	termimg "github.com/blacktop/go-termimg"
	"github.com/pkg/errors"
)

// Viewer holds one decoded image and a render cache keyed by protocol
// and target cell size, so repeated repaints at the same size (e.g.
// scrolling past the image and back) don't re-encode it.
type Viewer struct {
	Path string

	img   image.Image
	cache map[string]string
}

// Load decodes the image at path.
func Load(path string) (*Viewer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode image %s", path)
	}
	return &Viewer{Path: path, img: img, cache: make(map[string]string)}, nil
}

// Bounds returns the decoded image's pixel dimensions.
func (v *Viewer) Bounds() image.Rectangle {
	return v.img.Bounds()
}

func cacheKey(proto termimg.Protocol, width, height int) string {
	return fmt.Sprintf("%d:%dx%d", proto, width, height)
}

// Render renders the image at the given cell dimensions using proto,
// scaling to fit within the cell area.
func (v *Viewer) Render(proto termimg.Protocol, width, height int) (string, error) {
	key := cacheKey(proto, width, height)
	if cached, ok := v.cache[key]; ok {
		return cached, nil
	}

	ti := termimg.New(v.img)
	if ti == nil {
		return "", errors.New("go-termimg: failed to wrap decoded image")
	}
	ti.Protocol(proto).Size(width, height).Scale(termimg.ScaleFit)

	rendered, err := ti.Render()
	if err != nil {
		return "", errors.Wrap(err, "failed to render image")
	}

	v.cache[key] = rendered
	return rendered, nil
}

// InvalidateCache drops all cached renders, for when the image or the
// active theme/protocol changes.
func (v *Viewer) InvalidateCache() {
	v.cache = make(map[string]string)
}
