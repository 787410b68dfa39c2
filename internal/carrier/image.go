package carrier

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ChannelsPerPixel is the number of units each pixel contributes (R, G, B).
const ChannelsPerPixel = 3

// ImageCarrier hides bits in the RGB channels of an NRGBA raster. Alpha is
// never modified.
type ImageCarrier struct {
	img *image.NRGBA

	// Fixed forbids the capacity planner from resizing this carrier.
	Fixed bool
}

// NewImageCarrier copies src into a zero-origin NRGBA raster.
func NewImageCarrier(src image.Image) *ImageCarrier {
	return &ImageCarrier{img: toNRGBA(src)}
}

// DecodeImage reads a carrier in any registered format (PNG, JPEG, GIF,
// BMP, TIFF, WebP). Lossy inputs are accepted for embedding; extraction only
// works on media that went through Encode.
func DecodeImage(r io.Reader) (*ImageCarrier, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return NewImageCarrier(img), nil
}

func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	// Copy NRGBA rows directly; going through draw would premultiply and
	// lose the colour of transparent pixels.
	if n, ok := src.(*image.NRGBA); ok {
		for y := 0; y < b.Dy(); y++ {
			off := n.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()*4], n.Pix[off:off+b.Dx()*4])
		}
		return dst
	}

	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Image returns the underlying raster.
func (c *ImageCarrier) Image() *image.NRGBA {
	return c.img
}

// Size returns the carrier dimensions.
func (c *ImageCarrier) Size() image.Point {
	return c.img.Bounds().Size()
}

// Capacity returns the number of units available for embedding.
func (c *ImageCarrier) Capacity() int {
	s := c.Size()
	return s.X * s.Y * ChannelsPerPixel
}

// Units returns R, G, B of every pixel in row-major order.
func (c *ImageCarrier) Units() []int {
	s := c.Size()
	units := make([]int, 0, c.Capacity())
	for y := 0; y < s.Y; y++ {
		row := c.img.Pix[y*c.img.Stride:]
		for x := 0; x < s.X; x++ {
			px := row[x*4 : x*4+ChannelsPerPixel]
			units = append(units, int(px[0]), int(px[1]), int(px[2]))
		}
	}
	return units
}

// Rebuild writes units back into the RGB channels.
func (c *ImageCarrier) Rebuild(units []int) error {
	if len(units) != c.Capacity() {
		return fmt.Errorf("%w: got %d, want %d", ErrUnitCount, len(units), c.Capacity())
	}

	s := c.Size()
	i := 0
	for y := 0; y < s.Y; y++ {
		row := c.img.Pix[y*c.img.Stride:]
		for x := 0; x < s.X; x++ {
			for ch := 0; ch < ChannelsPerPixel; ch++ {
				row[x*4+ch] = uint8(units[i])
				i++
			}
		}
	}
	return nil
}

// Encode writes the carrier as PNG.
func (c *ImageCarrier) Encode(w io.Writer) error {
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(w, c.img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// Resize scales src to w×h with a Catmull-Rom filter.
func Resize(src image.Image, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
