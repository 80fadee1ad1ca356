package transcode

import (
	"image"
	"image/color"
	"testing"

	"github.com/SuperGenLabs/img-velocity/internal/domain"
)

func TestScaleFactorUsesSmallerAxis(t *testing.T) {
	cases := []struct {
		original, target domain.Size
		expect           float64
	}{
		{domain.Size{W: 1000, H: 1000}, domain.Size{W: 800, H: 500}, 0.5},
		{domain.Size{W: 2000, H: 1000}, domain.Size{W: 1000, H: 800}, 0.5},
		{domain.Size{W: 100, H: 100}, domain.Size{W: 100, H: 100}, 1},
		{domain.Size{W: 0, H: 100}, domain.Size{W: 50, H: 50}, 1},
	}
	for _, c := range cases {
		if got := scaleFactor(c.original, c.target); got != c.expect {
			t.Fatalf("scaleFactor(%s, %s) = %v, want %v", c.original, c.target, got, c.expect)
		}
	}
}

func TestSharpenForScaleTiers(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	original := domain.Size{W: 1000, H: 1000}

	// At >= 0.75 the image passes through untouched.
	out := sharpenForScale(img, original, domain.Size{W: 800, H: 800})
	if out != img {
		t.Fatalf("expected no sharpening at scale 0.8")
	}

	// Below the thresholds a new image is produced.
	if out := sharpenForScale(img, original, domain.Size{W: 600, H: 600}); out == img {
		t.Fatalf("expected light sharpening at scale 0.6")
	}
	if out := sharpenForScale(img, original, domain.Size{W: 200, H: 200}); out == img {
		t.Fatalf("expected strong sharpening at scale 0.2")
	}
}

func TestUnsharpMaskIncreasesEdgeContrast(t *testing.T) {
	// Half black, half white; sharpening must push edge pixels apart,
	// never pull the flat regions out of range.
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(0)
			if x >= 8 {
				v = 200
			}
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}

	out := unsharpMask(img, 1.0, 1.5)

	darkEdge := out.NRGBAAt(7, 8)
	lightEdge := out.NRGBAAt(8, 8)
	if darkEdge.R > img.NRGBAAt(7, 8).R {
		t.Fatalf("dark side of edge should not get lighter: %d", darkEdge.R)
	}
	if lightEdge.R < img.NRGBAAt(8, 8).R {
		t.Fatalf("light side of edge should not get darker: %d", lightEdge.R)
	}
	if a := out.NRGBAAt(3, 3).A; a != 255 {
		t.Fatalf("alpha must be preserved, got %d", a)
	}
}

func TestHasAlpha(t *testing.T) {
	opaquePalette := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{
		color.NRGBA{0, 0, 0, 255},
		color.NRGBA{255, 255, 255, 255},
	})
	transparentPalette := image.NewPaletted(image.Rect(0, 0, 2, 2), color.Palette{
		color.NRGBA{0, 0, 0, 255},
		color.NRGBA{0, 0, 0, 0},
	})

	if hasAlpha(opaquePalette) {
		t.Fatalf("fully opaque palette should not report alpha")
	}
	if !hasAlpha(transparentPalette) {
		t.Fatalf("palette with a transparent entry should report alpha")
	}
	if !hasAlpha(image.NewNRGBA(image.Rect(0, 0, 1, 1))) {
		t.Fatalf("NRGBA should report alpha")
	}
	if hasAlpha(image.NewYCbCr(image.Rect(0, 0, 2, 2), image.YCbCrSubsampleRatio420)) {
		t.Fatalf("YCbCr should not report alpha")
	}
	if hasAlpha(image.NewGray(image.Rect(0, 0, 1, 1))) {
		t.Fatalf("Gray should not report alpha")
	}
}

func TestNormalizeColorModeFlattensOpaqueSources(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 4, 4))
	out := normalizeColorMode(gray)
	for i := 3; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 255 {
			t.Fatalf("flattened image must be fully opaque at %d", i)
		}
	}

	// A transparent source keeps its alpha channel.
	src := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 40})
	out = normalizeColorMode(src)
	if out.NRGBAAt(0, 0).A != 40 {
		t.Fatalf("alpha should survive normalization, got %d", out.NRGBAAt(0, 0).A)
	}
}

func TestClampByte(t *testing.T) {
	if clampByte(-10) != 0 || clampByte(300) != 255 || clampByte(128) != 128 {
		t.Fatalf("clamp misbehaves: %d %d %d", clampByte(-10), clampByte(300), clampByte(128))
	}
}
