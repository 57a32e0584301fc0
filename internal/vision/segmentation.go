package vision

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"stereovision/internal/models"
)

var (
	contourColor = color.RGBA{R: 0, G: 0, B: 250, A: 0}
	markerColor  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

const (
	blurKernel   = 5
	erodeKernel  = 12
	dilateKernel = 24
	markerRadius = 7
)

// FrameResult is the output of one pipeline tick. The Mats are owned by the
// pipeline and are only valid during the sink call.
type FrameResult struct {
	Frame  gocv.Mat // annotated frame
	Mask   gocv.Mat // raw color threshold
	Morph  gocv.Mat // mask after erosion and dilation
	Points []models.Point
}

// Close releases the Mats.
func (r *FrameResult) Close() {
	r.Frame.Close()
	r.Mask.Close()
	r.Morph.Close()
}

// Process runs the segmentation chain on one raw BGR frame: scale, optional
// blur, HSV threshold, morphology, contours and centroids.
func Process(raw gocv.Mat, settings models.Settings, blur bool) (*FrameResult, error) {
	if raw.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	width, height := settings.Calibration.Quality.Dimensions()
	frame := gocv.NewMat()
	gocv.Resize(raw, &frame, image.Pt(width, height), 0, 0, gocv.InterpolationLinear)

	if blur {
		blurred := RemoveNoise(frame)
		frame.Close()
		frame = blurred
	}

	mask, err := Threshold(frame, settings.Color)
	if err != nil {
		frame.Close()
		return nil, err
	}
	morph := Clean(mask)

	contours := gocv.FindContours(morph, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	outlines := make([][]image.Point, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		outlines[i] = contours.At(i).ToPoints()
	}

	result := &FrameResult{Frame: frame, Mask: mask, Morph: morph}
	for _, c := range SelectCandidates(outlines, MaxObjects) {
		result.Points = append(result.Points, c.Centroid)
		gocv.DrawContours(&result.Frame, contours, c.Index, contourColor, 2)
		center := image.Pt(int(c.Centroid.X), int(c.Centroid.Y))
		gocv.Circle(&result.Frame, center, markerRadius, markerColor, -1)
	}
	return result, nil
}

// RemoveNoise applies a fixed 5x5 box blur.
func RemoveNoise(frame gocv.Mat) gocv.Mat {
	blurred := gocv.NewMat()
	gocv.Blur(frame, &blurred, image.Pt(blurKernel, blurKernel))
	return blurred
}

// Threshold converts a BGR frame to HSV and keeps the pixels inside r.
func Threshold(frame gocv.Mat, r models.ColorRange) (gocv.Mat, error) {
	hsv := gocv.NewMat()
	defer hsv.Close()
	if err := gocv.CvtColor(frame, &hsv, gocv.ColorBGRToHSV); err != nil {
		return gocv.Mat{}, fmt.Errorf("failed to convert frame to HSV: %w", err)
	}

	lower := gocv.NewScalar(r.HueStart, r.SaturationStart, r.ValueStart, 0)
	upper := gocv.NewScalar(r.HueStop, r.SaturationStop, r.ValueStop, 0)
	mask := gocv.NewMat()
	gocv.InRangeWithScalar(hsv, lower, upper, &mask)
	return mask, nil
}

// Clean erodes twice with a small element to drop speckles, then dilates
// twice with a large one to close gaps.
func Clean(mask gocv.Mat) gocv.Mat {
	erodeElement := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(erodeKernel, erodeKernel))
	defer erodeElement.Close()
	dilateElement := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(dilateKernel, dilateKernel))
	defer dilateElement.Close()

	a := gocv.NewMat()
	b := gocv.NewMat()
	gocv.Erode(mask, &a, erodeElement)
	gocv.Erode(a, &b, erodeElement)
	gocv.Dilate(b, &a, dilateElement)
	gocv.Dilate(a, &b, dilateElement)
	a.Close()
	return b
}
