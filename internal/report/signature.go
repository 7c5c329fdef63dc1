package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"strings"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

var ErrNotDataURI = errors.New("signature is not a base64 data uri")

// DecodeDataURI extracts the payload of a data:image/...;base64, string.
// Bare base64 is accepted too.
func DecodeDataURI(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrNotDataURI
	}
	if strings.HasPrefix(s, "data:") {
		i := strings.Index(s, ",")
		if i < 0 || !strings.Contains(s[:i], ";base64") {
			return nil, ErrNotDataURI
		}
		s = s[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(s)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDataURI, err)
	}
	return raw, nil
}

// NormalizeSignature decodes a signature image, flattens transparency onto
// white and scales it to fit maxW x maxH. The result is always PNG.
func NormalizeSignature(dataURI string, maxW, maxH int) ([]byte, error) {
	raw, err := DecodeDataURI(dataURI)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("decode image: empty bounds")
	}

	w, h := b.Dx(), b.Dy()
	if maxW > 0 && maxH > 0 && (w > maxW || h > maxH) {
		scale := float64(maxW) / float64(w)
		if s := float64(maxH) / float64(h); s < scale {
			scale = s
		}
		w = max(1, int(float64(w)*scale))
		h = max(1, int(float64(h)*scale))
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()
	dc.DrawImage(dst, 0, 0)

	var out bytes.Buffer
	if err := dc.EncodePNG(&out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return out.Bytes(), nil
}

// SignatureSet holds normalized signature images keyed by their data uri.
// A key mapped to nil failed to decode.
type SignatureSet struct {
	mu     sync.Mutex
	images map[string][]byte
}

func (s *SignatureSet) Get(uri string) ([]byte, bool) {
	if s == nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	img, ok := s.images[uri]
	return img, ok && img != nil
}

// Failures counts signatures that could not be decoded.
func (s *SignatureSet) Failures() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, img := range s.images {
		if img == nil {
			n++
		}
	}
	return n
}

// DecodeSignatures normalizes every distinct signature referenced by pages
// with at most workers decodes in flight. Decode failures are recorded, not
// returned.
func DecodeSignatures(ctx context.Context, pages []Page, workers int) (*SignatureSet, error) {
	if workers <= 0 {
		workers = 4
	}
	set := &SignatureSet{images: map[string][]byte{}}
	seen := map[string]bool{}
	var uris []string
	for _, p := range pages {
		for _, uri := range p.Images {
			if !seen[uri] {
				seen[uri] = true
				uris = append(uris, uri)
			}
		}
		for _, sb := range p.Signatures {
			if sb.Image != "" && !seen[sb.Image] {
				seen[sb.Image] = true
				uris = append(uris, sb.Image)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, uri := range uris {
		uri := uri
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := NormalizeSignature(uri, 400, 160)
			if err != nil {
				img = nil
			}
			set.mu.Lock()
			set.images[uri] = img
			set.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}
