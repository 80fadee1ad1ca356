// Package transcode executes variant jobs against the imaging
// library and schedules image tasks across a bounded worker pool.
package transcode

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	// imaging registers the JPEG and PNG decoders; WebP input needs
	// the x/image decoder.
	_ "golang.org/x/image/webp"

	"github.com/SuperGenLabs/img-velocity/internal/domain"
	"github.com/SuperGenLabs/img-velocity/internal/policy"
)

// Sharpening tiers by downscale factor. Aggressive reductions produce
// visibly soft output without compensation; too much sharpening
// causes halos.
const (
	sharpenNoneAbove  = 0.75
	sharpenLightAbove = 0.5

	lightSigma   = 1.0
	lightAmount  = 1.5
	strongSigma  = 1.5
	strongAmount = 2.0
)

// WebPTranscoder resizes, sharpens and encodes one variant per call.
// It is stateless and safe for concurrent use.
type WebPTranscoder struct{}

func NewWebPTranscoder() *WebPTranscoder {
	return &WebPTranscoder{}
}

// Transcode runs one variant job: decode, normalize color mode,
// Lanczos resize, tiered sharpening, lossy WebP encode.
func (t *WebPTranscoder) Transcode(job domain.VariantJob) (*domain.VariantResult, error) {
	src, err := imaging.Open(job.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", job.SourcePath, err)
	}

	img := normalizeColorMode(src)
	img = imaging.Resize(img, job.Target.W, job.Target.H, imaging.Lanczos)
	img = sharpenForScale(img, job.Original, job.Target)

	if err := os.MkdirAll(filepath.Dir(job.DestPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	quality := policy.Quality(job.Target.W, job.Target.H, job.Thumbnail)
	if err := encodeWebP(img, job.DestPath, quality); err != nil {
		return nil, err
	}

	stat, err := os.Stat(job.DestPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", job.DestPath, err)
	}

	kind := domain.KindStandard
	if job.Thumbnail {
		kind = domain.KindThumbnail
	}
	return &domain.VariantResult{
		Path:   job.RelPath,
		Width:  job.Target.W,
		Height: job.Target.H,
		Size:   stat.Size(),
		Kind:   kind,
	}, nil
}

func encodeWebP(img image.Image, path string, quality int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
	if err != nil {
		return fmt.Errorf("webp encoder options: %w", err)
	}
	if err := webp.Encode(f, img, opts); err != nil {
		os.Remove(path)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// normalizeColorMode returns an NRGBA image. Palette images with
// transparent entries keep their alpha channel, as do native alpha
// modes; everything else is flattened to fully opaque pixels.
func normalizeColorMode(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	if hasAlpha(img) {
		return out
	}
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

func hasAlpha(img image.Image) bool {
	switch src := img.(type) {
	case *image.Paletted:
		for _, c := range src.Palette {
			if _, _, _, a := c.RGBA(); a < 0xffff {
				return true
			}
		}
		return false
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64, *image.Alpha, *image.Alpha16:
		return true
	default:
		return false
	}
}

// sharpenForScale applies an unsharp mask sized to the downscale
// factor: none at >= 0.75, light at >= 0.5, strong below that.
func sharpenForScale(img *image.NRGBA, original, target domain.Size) *image.NRGBA {
	scale := scaleFactor(original, target)
	switch {
	case scale >= sharpenNoneAbove:
		return img
	case scale >= sharpenLightAbove:
		return unsharpMask(img, lightSigma, lightAmount)
	default:
		return unsharpMask(img, strongSigma, strongAmount)
	}
}

// scaleFactor is the conservative (smaller) of the two per-axis
// scale ratios.
func scaleFactor(original, target domain.Size) float64 {
	if original.W <= 0 || original.H <= 0 {
		return 1
	}
	sw := float64(target.W) / float64(original.W)
	sh := float64(target.H) / float64(original.H)
	if sw < sh {
		return sw
	}
	return sh
}

// unsharpMask adds amount * (img - blur(img, sigma)) back onto the
// image, clamped per channel. Alpha is left untouched.
func unsharpMask(img *image.NRGBA, sigma, amount float64) *image.NRGBA {
	blurred := imaging.Blur(img, sigma)
	out := imaging.Clone(img)
	for i := 0; i < len(out.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			orig := float64(img.Pix[i+c])
			blur := float64(blurred.Pix[i+c])
			out.Pix[i+c] = clampByte(orig + amount*(orig-blur))
		}
	}
	return out
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
