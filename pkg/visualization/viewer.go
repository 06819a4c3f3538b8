package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/floats"

	"niimgs/pkg/volume"
)

// Viewer cuts 2D images out of a single 3D frame. Intensities are scaled
// to the frame's own value range, so frames with negative statistics
// render as well as frames in [0, 1].
type Viewer struct {
	frame *volume.Frame
	data  []float64

	// dimensions of the frame
	width  int
	height int
	depth  int

	// physical voxel size in mm along x, y and z
	voxelSize [3]float64

	min, max float64
}

// NewViewer creates a viewer over frame.
func NewViewer(frame *volume.Frame) *Viewer {
	shape := frame.Shape()
	data := frame.Data()
	lo, hi := valueRange(data)
	return &Viewer{
		frame:     frame,
		data:      data,
		width:     shape[0],
		height:    shape[1],
		depth:     shape[2],
		voxelSize: frame.Affine().VoxelSize(),
		min:       lo,
		max:       hi,
	}
}

// valueRange returns the smallest and largest values, skipping NaN. Both
// are zero when no value is a number.
func valueRange(values []float64) (lo, hi float64) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return 0, 0
	}
	return floats.Min(finite), floats.Max(finite)
}

// axisLength returns the number of positions along axis.
func (v *Viewer) axisLength(axis string) (int, error) {
	switch strings.ToLower(axis) {
	case "x":
		return v.width, nil
	case "y":
		return v.height, nil
	case "z":
		return v.depth, nil
	default:
		return 0, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}
}

// Cut returns the voxel values of the plane at position along axis, row
// by row, with its column and row counts.
//
//	x: columns run along z, rows along y
//	y: columns run along x, rows along z
//	z: columns run along x, rows along y
func (v *Viewer) Cut(axis string, position int) (values []float64, cols, rows int, err error) {
	n, err := v.axisLength(axis)
	if err != nil {
		return nil, 0, 0, err
	}
	if position < 0 {
		return nil, 0, 0, fmt.Errorf("position must be non-negative")
	}
	if position >= n {
		return nil, 0, 0, fmt.Errorf("position %d exceeds %s-axis length %d", position, axis, n)
	}

	switch strings.ToLower(axis) {
	case "x":
		cols, rows = v.depth, v.height
		values = make([]float64, cols*rows)
		for y := 0; y < v.height; y++ {
			for z := 0; z < v.depth; z++ {
				values[y*cols+z] = v.data[z*v.width*v.height+y*v.width+position]
			}
		}
	case "y":
		cols, rows = v.width, v.depth
		values = make([]float64, cols*rows)
		for z := 0; z < v.depth; z++ {
			for x := 0; x < v.width; x++ {
				values[z*cols+x] = v.data[z*v.width*v.height+position*v.width+x]
			}
		}
	default:
		cols, rows = v.width, v.height
		values = make([]float64, cols*rows)
		for y := 0; y < v.height; y++ {
			for x := 0; x < v.width; x++ {
				values[y*cols+x] = v.data[position*v.width*v.height+y*v.width+x]
			}
		}
	}
	return values, cols, rows, nil
}

// ExtractSlice extracts a grayscale 2D slice along the specified axis.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	values, cols, rows, err := v.Cut(axis, position)
	if err != nil {
		return nil, err
	}

	img := image.NewGray16(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			img.SetGray16(c, r, color.Gray16{Y: v.gray(values[r*cols+c])})
		}
	}
	return img, nil
}

// gray maps a voxel value onto the full 16-bit range of the frame.
func (v *Viewer) gray(value float64) uint16 {
	if v.max == v.min || math.IsNaN(value) {
		return 0
	}
	scaled := (value - v.min) / (v.max - v.min)
	return uint16(math.Max(0, math.Min(65535, scaled*65535)))
}

// PeakPosition returns the position along axis of the voxel with the
// largest absolute value, the cut where a statistic is strongest.
func (v *Viewer) PeakPosition(axis string) (int, error) {
	if _, err := v.axisLength(axis); err != nil {
		return 0, err
	}
	best, peak := 0, -1.0
	for idx, value := range v.data {
		if a := math.Abs(value); a > peak {
			best, peak = idx, a
		}
	}
	x := best % v.width
	y := (best / v.width) % v.height
	z := best / (v.width * v.height)
	switch strings.ToLower(axis) {
	case "x":
		return x, nil
	case "y":
		return y, nil
	default:
		return z, nil
	}
}

// ExtractRegion extracts a 3D block of the frame as a new frame. The
// block's affine is shifted so its voxels keep their world coordinates.
func (v *Viewer) ExtractRegion(startX, startY, startZ, sizeX, sizeY, sizeZ int) (*volume.Frame, error) {
	if startX < 0 || startY < 0 || startZ < 0 {
		return nil, fmt.Errorf("start coordinates must be non-negative")
	}

	if sizeX <= 0 || sizeY <= 0 || sizeZ <= 0 {
		return nil, fmt.Errorf("size dimensions must be positive")
	}

	if startX+sizeX > v.width || startY+sizeY > v.height || startZ+sizeZ > v.depth {
		return nil, fmt.Errorf("region extends beyond volume boundaries")
	}

	region := make([]float64, sizeX*sizeY*sizeZ)
	for z := 0; z < sizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			for x := 0; x < sizeX; x++ {
				srcIdx := (startZ+z)*v.width*v.height + (startY+y)*v.width + (startX + x)
				dstIdx := z*sizeX*sizeY + y*sizeX + x
				region[dstIdx] = v.data[srcIdx]
			}
		}
	}

	affine := v.frame.Affine()
	start := [3]float64{float64(startX), float64(startY), float64(startZ)}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			affine[i][3] += affine[i][j] * start[j]
		}
	}

	return volume.NewFrame(volume.Shape{sizeX, sizeY, sizeZ}, region, affine)
}

// SaveSlice saves an extracted slice as PNG when filename ends in .png and
// as JPEG otherwise.
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(filename), ".png") {
		return png.Encode(file, img)
	}
	return jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
}

// SaveSliceSequence extracts and saves every slice along the specified
// axis as slice_<axis>_NNN.<ext>; ext defaults to jpg.
func (v *Viewer) SaveSliceSequence(axis string, outputDir string, ext string) error {
	maxPos, err := v.axisLength(axis)
	if err != nil {
		return err
	}
	if ext == "" {
		ext = "jpg"
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.%s", strings.ToLower(axis), pos, ext))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
