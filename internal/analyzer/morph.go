package analyzer

import (
	"image"
	"math"
)

// luma converts an RGBA frame to grayscale
func luma(img *image.RGBA) *image.Gray {
	b := img.Rect
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		i := y * img.Stride
		for x := 0; x < b.Dx(); x++ {
			r, g, bl := float64(img.Pix[i]), float64(img.Pix[i+1]), float64(img.Pix[i+2])
			gray.Pix[y*gray.Stride+x] = uint8(0.299*r + 0.587*g + 0.114*bl + 0.5)
			i += 4
		}
	}
	return gray
}

// sobel marks pixels whose gradient magnitude exceeds threshold
func sobel(gray *image.Gray, threshold float64) *image.Gray {
	b := gray.Bounds()
	edges := image.NewGray(b)

	gx := [3][3]int{{-1, 0, 1}, {-2, 0, 2}, {-1, 0, 1}}
	gy := [3][3]int{{-1, -2, -1}, {0, 0, 0}, {1, 2, 1}}

	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			var sumX, sumY float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := float64(gray.GrayAt(x+kx, y+ky).Y)
					sumX += v * float64(gx[ky+1][kx+1])
					sumY += v * float64(gy[ky+1][kx+1])
				}
			}
			if math.Sqrt(sumX*sumX+sumY*sumY) > threshold {
				edges.Pix[edges.PixOffset(x, y)] = 255
			}
		}
	}
	return edges
}

// dilate grows white areas so nearby differences merge into one region
func dilate(img *image.Gray, kernelSize, iterations int) *image.Gray {
	b := img.Bounds()
	result := image.NewGray(b)
	copy(result.Pix, img.Pix)

	half := kernelSize / 2
	for iter := 0; iter < iterations; iter++ {
		temp := image.NewGray(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				var maxVal uint8
				for ky := -half; ky <= half && maxVal < 255; ky++ {
					for kx := -half; kx <= half; kx++ {
						p := image.Pt(x+kx, y+ky)
						if !p.In(b) {
							continue
						}
						if v := result.GrayAt(p.X, p.Y).Y; v > maxVal {
							maxVal = v
						}
					}
				}
				temp.Pix[temp.PixOffset(x, y)] = maxVal
			}
		}
		result = temp
	}
	return result
}

// contours returns bounding rectangles of connected white regions
func contours(img *image.Gray) []image.Rectangle {
	b := img.Bounds()
	visited := make([]bool, b.Dx()*b.Dy())
	var out []image.Rectangle

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y > 128 && !visited[(y-b.Min.Y)*b.Dx()+(x-b.Min.X)] {
				out = append(out, floodFill(img, visited, x, y))
			}
		}
	}
	return out
}

// floodFill marks one component and returns its bounds.
func floodFill(img *image.Gray, visited []bool, startX, startY int) image.Rectangle {
	b := img.Bounds()
	minX, minY, maxX, maxY := startX, startY, startX, startY

	stack := []image.Point{{X: startX, Y: startY}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !p.In(b) {
			continue
		}
		idx := (p.Y-b.Min.Y)*b.Dx() + (p.X - b.Min.X)
		if visited[idx] || img.GrayAt(p.X, p.Y).Y <= 128 {
			continue
		}
		visited[idx] = true

		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)

		stack = append(stack,
			image.Point{X: p.X + 1, Y: p.Y},
			image.Point{X: p.X - 1, Y: p.Y},
			image.Point{X: p.X, Y: p.Y + 1},
			image.Point{X: p.X, Y: p.Y - 1},
		)
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}
