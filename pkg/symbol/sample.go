package symbol

import "fmt"

// Image is a single-channel grayscale pixel grid stored row-major.
// Values are raw 0-255 intensities as float32, not normalized.
type Image struct {
	Width  int
	Height int
	Pix    []float32
}

// NewImage allocates a zeroed width x height image.
func NewImage(width, height int) Image {
	return Image{Width: width, Height: height, Pix: make([]float32, width*height)}
}

// At returns the intensity at column x, row y.
func (m Image) At(x, y int) float32 {
	return m.Pix[y*m.Width+x]
}

// Row returns row y as a slice sharing the image's storage.
func (m Image) Row(y int) []float32 {
	off := y * m.Width
	return m.Pix[off : off+m.Width : off+m.Width]
}

// Rows returns the grid as Height rows of Width values, sharing storage.
func (m Image) Rows() [][]float32 {
	rows := make([][]float32, m.Height)
	for y := range rows {
		rows[y] = m.Row(y)
	}
	return rows
}

// Dataset holds index-aligned images and label ids: Labels[i] is the class of Images[i].
type Dataset struct {
	Images []Image
	Labels []int
}

// Len returns the number of samples.
func (d Dataset) Len() int {
	return len(d.Labels)
}

// Validate checks that images and labels are index-aligned and that every
// image buffer matches its dimensions.
func (d Dataset) Validate() error {
	if len(d.Images) != len(d.Labels) {
		return fmt.Errorf("dataset: %d images but %d labels", len(d.Images), len(d.Labels))
	}
	for i, img := range d.Images {
		if img.Width < 0 || img.Height < 0 || len(img.Pix) != img.Width*img.Height {
			return fmt.Errorf("dataset: image %d has %d pixels for %dx%d", i, len(img.Pix), img.Width, img.Height)
		}
	}
	return nil
}
