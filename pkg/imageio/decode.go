// Package imageio opens raster images from a Source and converts them to
// single-channel float grids.
package imageio

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/heartmarshall/symbolset/pkg/symbol"
)

// DecodeGray decodes any registered image format and converts it to 8-bit
// luma stored as float32. Color pixels use the ITU-R 601-2 transform
// L = R*299/1000 + G*587/1000 + B*114/1000 with the same 16-bit fixed-point
// rounding as PIL's convert("L"). 16-bit gray is clipped to 255. Alpha is
// ignored.
func DecodeGray(r io.Reader) (symbol.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return symbol.Image{}, format, fmt.Errorf("decode: %w", err)
	}
	return ToGray(img), format, nil
}

// ToGray converts img to a grayscale float grid.
func ToGray(img image.Image) symbol.Image {
	b := img.Bounds()
	out := symbol.NewImage(b.Dx(), b.Dy())

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < out.Height; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[off : off+out.Width]
			dst := out.Row(y)
			for x, p := range row {
				dst[x] = float32(p)
			}
		}
	case *image.Gray16:
		for y := 0; y < out.Height; y++ {
			off := src.PixOffset(b.Min.X, b.Min.Y+y)
			row := src.Pix[off : off+2*out.Width]
			dst := out.Row(y)
			for x := range dst {
				v := uint16(row[2*x])<<8 | uint16(row[2*x+1])
				dst[x] = float32(min(v, 255))
			}
		}
	default:
		for y := 0; y < out.Height; y++ {
			dst := out.Row(y)
			for x := range dst {
				c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
				dst[x] = float32(luma(c.R, c.G, c.B))
			}
		}
	}

	return out
}

// luma is PIL's L24 fixed-point ITU-R 601-2 conversion.
func luma(r, g, b uint8) uint8 {
	return uint8((uint32(r)*19595 + uint32(g)*38470 + uint32(b)*7471 + 0x8000) >> 16)
}
