package merge

import (
	"image"

	"github.com/ironsheep/pagescan/internal/imaging"
)

// blendSeams smooths a band of seamWidth pixels across every internal cell
// boundary with a 3-tap box filter across the boundary. Vertical boundaries are
// blended horizontally first, then horizontal boundaries vertically; each pass
// reads from a snapshot so blended pixels never feed each other.
func blendSeams(img *image.RGBA, gridSize, seamWidth int) {
	if seamWidth <= 0 || gridSize < 2 {
		return
	}
	w, h := img.Rect.Dx(), img.Rect.Dy()

	src := imaging.CloneRGBA(img)
	for col := 1; col < gridSize; col++ {
		bx := col * w / gridSize
		for x := bx - seamWidth/2; x < bx-seamWidth/2+seamWidth; x++ {
			if x < 1 || x >= w-1 {
				continue
			}
			for y := 0; y < h; y++ {
				blend3(img, src, y*img.Stride+4*x, 4)
			}
		}
	}

	src = imaging.CloneRGBA(img)
	for row := 1; row < gridSize; row++ {
		by := row * h / gridSize
		for y := by - seamWidth/2; y < by-seamWidth/2+seamWidth; y++ {
			if y < 1 || y >= h-1 {
				continue
			}
			for x := 0; x < w; x++ {
				blend3(img, src, y*img.Stride+4*x, img.Stride)
			}
		}
	}
}

// blend3 writes the mean of the pixels at i-step, i and i+step of src into dst
// at i, for the colour channels only.
func blend3(dst, src *image.RGBA, i, step int) {
	for c := 0; c < 3; c++ {
		sum := int(src.Pix[i-step+c]) + int(src.Pix[i+c]) + int(src.Pix[i+step+c])
		dst.Pix[i+c] = uint8((sum + 1) / 3)
	}
}
