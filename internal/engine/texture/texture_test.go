package texture

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/image/bmp"
)

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	blue  = color.RGBA{B: 255, A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

func tgaHeader(imageType byte, w, h int, bpp, descriptor byte) []byte {
	hdr := make([]byte, 18)
	hdr[2] = imageType
	hdr[12], hdr[13] = byte(w), byte(w>>8)
	hdr[14], hdr[15] = byte(h), byte(h>>8)
	hdr[16] = bpp
	hdr[17] = descriptor
	return hdr
}

// bottomUpTGA is 2x2: bottom row red, green; top row blue, white.
func bottomUpTGA() []byte {
	data := tgaHeader(TGATypeUncompressed, 2, 2, 24, 0)
	for _, c := range []color.RGBA{red, green, blue, white} {
		data = append(data, c.B, c.G, c.R)
	}
	return data
}

func TestDecodeTGAUncompressed(t *testing.T) {
	img, err := DecodeTGA(bottomUpTGA())
	if err != nil {
		t.Fatalf("DecodeTGA: %v", err)
	}
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 1, red},
		{1, 1, green},
		{0, 0, blue},
		{1, 0, white},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d): got %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestDecodeTGARLE(t *testing.T) {
	data := tgaHeader(TGATypeRLE, 2, 1, 32, 0x20)
	data = append(data, 0x81, 0, 0, 255, 128)

	img, err := DecodeTGA(data)
	if err != nil {
		t.Fatalf("DecodeTGA: %v", err)
	}
	want := color.RGBA{R: 255, A: 128}
	for x := 0; x < 2; x++ {
		if got := img.RGBAAt(x, 0); got != want {
			t.Errorf("pixel %d: got %v, want %v", x, got, want)
		}
	}
}

func TestDecodeTGAErrors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"short", []byte{0, 0, 2}},
		{"color mapped", func() []byte { d := tgaHeader(2, 1, 1, 24, 0); d[1] = 1; return d }()},
		{"grayscale", tgaHeader(3, 1, 1, 8, 0)},
		{"16 bit", tgaHeader(2, 1, 1, 16, 0)},
		{"zero size", tgaHeader(2, 0, 1, 24, 0)},
		{"truncated", tgaHeader(2, 2, 2, 24, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeTGA(tt.data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// Decode returns images bottom row first, so the top-left pixel of the source
// ends up at the last row.
func TestDecodeFormats(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.SetRGBA(0, 0, red)
	src.SetRGBA(1, 0, green)
	src.SetRGBA(0, 1, blue)
	src.SetRGBA(1, 1, white)

	var pngBuf, bmpBuf bytes.Buffer
	if err := png.Encode(&pngBuf, src); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	if err := bmp.Encode(&bmpBuf, src); err != nil {
		t.Fatalf("bmp.Encode: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"wall.png", pngBuf.Bytes()},
		{"wall.BMP", bmpBuf.Bytes()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.name, tt.data)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got := img.RGBAAt(0, 1); got != red {
				t.Errorf("pixel (0,1): got %v, want %v", got, red)
			}
			if got := img.RGBAAt(1, 0); got != white {
				t.Errorf("pixel (1,0): got %v, want %v", got, white)
			}
		})
	}
}

func TestDecodeTGAFlipped(t *testing.T) {
	img, err := Decode("grid.tga", bottomUpTGA())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != red {
		t.Errorf("pixel (0,0): got %v, want %v", got, red)
	}
	if got := img.RGBAAt(1, 1); got != white {
		t.Errorf("pixel (1,1): got %v, want %v", got, white)
	}
}

func TestDecodeUnknown(t *testing.T) {
	if _, err := Decode("noise.png", []byte("not an image")); err == nil {
		t.Error("expected error for garbage data")
	}
}

func TestImageToRGBAOffset(t *testing.T) {
	src := image.NewRGBA(image.Rect(3, 3, 5, 4))
	src.SetRGBA(3, 3, green)

	got := ImageToRGBA(src)
	if got.Bounds() != image.Rect(0, 0, 2, 1) {
		t.Fatalf("bounds: got %v, want %v", got.Bounds(), image.Rect(0, 0, 2, 1))
	}
	if c := got.RGBAAt(0, 0); c != green {
		t.Errorf("pixel (0,0): got %v, want %v", c, green)
	}
}

func TestFromFramebuffer(t *testing.T) {
	// Bottom row red, top row blue, as glReadPixels returns them.
	pixels := []byte{
		255, 0, 0, 255,
		0, 0, 255, 255,
	}
	img, err := FromFramebuffer(pixels, 1, 2)
	if err != nil {
		t.Fatalf("FromFramebuffer: %v", err)
	}
	if got := img.RGBAAt(0, 0); got != blue {
		t.Errorf("top: got %v, want %v", got, blue)
	}
	if got := img.RGBAAt(0, 1); got != red {
		t.Errorf("bottom: got %v, want %v", got, red)
	}

	if _, err := FromFramebuffer(pixels, 2, 2); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestWritePNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(1, 0, green)

	path := ScreenshotName(filepath.Join(t.TempDir(), "shots"), "frame", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC))
	if want := "frame_2024-05-01_12-30-00.000.png"; filepath.Base(path) != want {
		t.Errorf("name: got %q, want %q", filepath.Base(path), want)
	}
	if err := WritePNG(path, src); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if got := ImageToRGBA(img).RGBAAt(1, 0); got != green {
		t.Errorf("pixel (1,0): got %v, want %v", got, green)
	}
}
