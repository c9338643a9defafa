// Package quality computes image-quality metrics for a face region.
//
// All functions are pure and total: degenerate input (empty regions, flat
// images, zero mean luminance) yields a defined value instead of a fault.
package quality

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/face-analyzer/pkg/types"
)

// noiseBlurSigma matches a 5x5 Gaussian kernel.
const noiseBlurSigma = 1.1

// plane is a grayscale float image used by the metric kernels.
type plane struct {
	w, h int
	pix  []float64
}

func (p plane) at(x, y int) float64 {
	// Replicate borders so 3x3 kernels stay total on small images.
	if x < 0 {
		x = 0
	}
	if x >= p.w {
		x = p.w - 1
	}
	if y < 0 {
		y = 0
	}
	if y >= p.h {
		y = p.h - 1
	}
	return p.pix[y*p.w+x]
}

// grayscale converts an image to BT.601 luminance in [0,255].
func grayscale(img image.Image) plane {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	p := plane{w: w, h: h, pix: make([]float64, w*h)}

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			p.pix[i] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			i++
		}
	}
	return p
}

// SharpnessLaplacian returns the variance of the 3x3 Laplacian response.
// Higher values mean a sharper image; a flat image scores 0.
func SharpnessLaplacian(img image.Image) float64 {
	return laplacianVariance(grayscale(img))
}

func laplacianVariance(p plane) float64 {
	n := p.w * p.h
	if n == 0 {
		return 0
	}

	resp := make([]float64, n)
	var sum float64
	i := 0
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			v := p.at(x-1, y) + p.at(x+1, y) + p.at(x, y-1) + p.at(x, y+1) - 4*p.at(x, y)
			resp[i] = v
			sum += v
			i++
		}
	}

	mean := sum / float64(n)
	var variance float64
	for _, v := range resp {
		d := v - mean
		variance += d * d
	}
	return variance / float64(n)
}

// SharpnessTenengrad returns the sum of squared Sobel gradient magnitudes.
func SharpnessTenengrad(img image.Image) float64 {
	p := grayscale(img)
	if p.w == 0 || p.h == 0 {
		return 0
	}

	var total float64
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			gx := -p.at(x-1, y-1) + p.at(x+1, y-1) +
				-2*p.at(x-1, y) + 2*p.at(x+1, y) +
				-p.at(x-1, y+1) + p.at(x+1, y+1)
			gy := -p.at(x-1, y-1) - 2*p.at(x, y-1) - p.at(x+1, y-1) +
				p.at(x-1, y+1) + 2*p.at(x, y+1) + p.at(x+1, y+1)
			total += gx*gx + gy*gy
		}
	}
	return total
}

// SharpnessFreq returns the fraction of frequency-spectrum energy outside
// radius min(h,w)/4 from the spectrum center. The result lies in [0,1];
// an empty spectrum scores 0.
func SharpnessFreq(img image.Image) float64 {
	p := grayscale(img)
	if p.w == 0 || p.h == 0 {
		return 0
	}

	mag := spectrumMagnitude(p)

	cx, cy := p.w/2, p.h/2
	radius := min(p.h, p.w) / 4
	r2 := float64(radius * radius)

	var high, total float64
	for y := 0; y < p.h; y++ {
		for x := 0; x < p.w; x++ {
			m := mag[y*p.w+x]
			total += m
			dx, dy := float64(x-cx), float64(y-cy)
			if dx*dx+dy*dy > r2 {
				high += m
			}
		}
	}
	if total == 0 {
		return 0
	}
	return high / total
}

// spectrumMagnitude computes the centered 2D DFT magnitude of a plane using
// row-column decomposition.
func spectrumMagnitude(p plane) []float64 {
	re := make([]float64, p.w*p.h)
	im := make([]float64, p.w*p.h)
	copy(re, p.pix)

	rowRe := make([]float64, p.w)
	rowIm := make([]float64, p.w)
	for y := 0; y < p.h; y++ {
		dft1d(re[y*p.w:(y+1)*p.w], im[y*p.w:(y+1)*p.w], rowRe, rowIm)
	}

	colRe := make([]float64, p.h)
	colIm := make([]float64, p.h)
	tmpRe := make([]float64, p.h)
	tmpIm := make([]float64, p.h)
	for x := 0; x < p.w; x++ {
		for y := 0; y < p.h; y++ {
			colRe[y] = re[y*p.w+x]
			colIm[y] = im[y*p.w+x]
		}
		dft1d(colRe, colIm, tmpRe, tmpIm)
		for y := 0; y < p.h; y++ {
			re[y*p.w+x] = colRe[y]
			im[y*p.w+x] = colIm[y]
		}
	}

	// Shift the zero-frequency component to the center and take magnitudes.
	mag := make([]float64, p.w*p.h)
	for y := 0; y < p.h; y++ {
		sy := (y + p.h/2) % p.h
		for x := 0; x < p.w; x++ {
			sx := (x + p.w/2) % p.w
			i := y*p.w + x
			mag[sy*p.w+sx] = math.Hypot(re[i], im[i])
		}
	}
	return mag
}

// dft1d replaces (re, im) with their discrete Fourier transform using the
// provided scratch buffers of the same length.
func dft1d(re, im, scratchRe, scratchIm []float64) {
	n := len(re)
	for k := 0; k < n; k++ {
		var sumRe, sumIm float64
		for t := 0; t < n; t++ {
			angle := -2 * math.Pi * float64(k) * float64(t) / float64(n)
			c, s := math.Cos(angle), math.Sin(angle)
			sumRe += re[t]*c - im[t]*s
			sumIm += re[t]*s + im[t]*c
		}
		scratchRe[k] = sumRe
		scratchIm[k] = sumIm
	}
	copy(re, scratchRe)
	copy(im, scratchIm)
}

// ContrastRMS returns the RMS deviation of luminance from its mean, as a
// percentage of the mean. A zero-mean (black) image scores 0.
func ContrastRMS(img image.Image) float64 {
	p := grayscale(img)
	n := p.w * p.h
	if n == 0 {
		return 0
	}

	var sum float64
	for _, v := range p.pix {
		sum += v
	}
	mean := sum / float64(n)
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, v := range p.pix {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance/float64(n)) / mean * 100
}

// ExposureMetrics returns the exposure sub-record: a 0-100 score around
// ideal middle gray (128), the over/under-exposed pixel fractions, and the
// signed deviation of the mean from 128.
func ExposureMetrics(img image.Image) types.Exposure {
	p := grayscale(img)
	n := p.w * p.h
	if n == 0 {
		return types.Exposure{Score: 0, MeanBrightness: 0, Diff: -128}
	}

	var sum float64
	var over, under int
	for _, v := range p.pix {
		sum += v
		if v > 240 {
			over++
		}
		if v < 15 {
			under++
		}
	}
	mean := sum / float64(n)

	score := 100 - math.Abs(mean-128)/128*100
	return types.Exposure{
		Score:           clamp(score, 0, 100),
		MeanBrightness:  mean,
		OverexposedPct:  float64(over) / float64(n) * 100,
		UnderexposedPct: float64(under) / float64(n) * 100,
		Diff:            mean - 128,
	}
}

// NoiseEstimate returns the standard deviation of the difference between
// the image and a Gaussian-blurred copy.
func NoiseEstimate(img image.Image) float64 {
	p := grayscale(img)
	n := p.w * p.h
	if n == 0 {
		return 0
	}

	blurred := grayscale(imaging.Blur(img, noiseBlurSigma))

	diff := make([]float64, n)
	var sum float64
	for i := range p.pix {
		d := p.pix[i] - blurred.pix[i]
		diff[i] = d
		sum += d
	}
	mean := sum / float64(n)

	var variance float64
	for _, d := range diff {
		variance += (d - mean) * (d - mean)
	}
	return math.Sqrt(variance / float64(n))
}

// Bokeh estimates background blur by comparing the sharpness of the region
// outside the face box against the face region itself. The score lies in
// [0,100]; it defaults to 50.0 when the face has zero sharpness or the box
// leaves no background pixels.
func Bokeh(img image.Image, face types.BBox) float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	x0 := max(0, face.X)
	y0 := max(0, face.Y)
	x1 := min(w, face.X+face.W)
	y1 := min(h, face.Y+face.H)

	faceRect := image.Rect(bounds.Min.X+x0, bounds.Min.Y+y0, bounds.Min.X+x1, bounds.Min.Y+y1)
	faceSharpness := 0.0
	if !faceRect.Empty() {
		faceSharpness = SharpnessLaplacian(imaging.Crop(img, faceRect))
	}

	p := grayscale(img)
	background := make([]float64, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				continue
			}
			background = append(background, p.pix[y*p.w+x])
		}
	}

	if len(background) == 0 || faceSharpness <= 0 {
		return 50.0
	}

	// The background is scored as a flattened 1-D signal.
	bgSharpness := laplacianVariance(plane{w: 1, h: len(background), pix: background})
	ratio := bgSharpness / faceSharpness
	return clamp((1-ratio)*100, 0, 100)
}

// SharpnessMap returns the per-pixel absolute Laplacian response. The map
// is diagnostic only and never feeds axis scoring.
func SharpnessMap(img image.Image) [][]float64 {
	p := grayscale(img)
	rows := make([][]float64, p.h)
	for y := 0; y < p.h; y++ {
		rows[y] = make([]float64, p.w)
		for x := 0; x < p.w; x++ {
			v := p.at(x-1, y) + p.at(x+1, y) + p.at(x, y-1) + p.at(x, y+1) - 4*p.at(x, y)
			rows[y][x] = math.Abs(v)
		}
	}
	return rows
}

// Report computes every metric for a face region in one pass. The face box
// is relative to img.
func Report(img image.Image, face types.BBox) types.QualityReport {
	return types.QualityReport{
		SharpnessLaplacian: SharpnessLaplacian(img),
		SharpnessTenengrad: SharpnessTenengrad(img),
		SharpnessFreq:      SharpnessFreq(img),
		ContrastRMS:        ContrastRMS(img),
		Exposure:           ExposureMetrics(img),
		Noise:              NoiseEstimate(img),
		Bokeh:              Bokeh(img, face),
		SharpnessMap:       SharpnessMap(img),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
