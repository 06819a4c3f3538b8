package visualization

import (
	"fmt"
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"niimgs/pkg/volume"
)

// newTestFrame builds a frame from a pattern function over voxel coordinates.
func newTestFrame(t *testing.T, width, height, depth int, affine volume.Affine, pattern func(x, y, z int) float64) *volume.Frame {
	t.Helper()
	data := make([]float64, width*height*depth)
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				data[z*width*height+y*width+x] = pattern(x, y, z)
			}
		}
	}
	frame, err := volume.NewFrame(volume.Shape{width, height, depth}, data, affine)
	if err != nil {
		t.Fatalf("Failed to create frame: %v", err)
	}
	return frame
}

// TestNewViewer verifies that a new viewer picks up the frame's geometry
func TestNewViewer(t *testing.T) {
	width, height, depth := 10, 10, 5
	frame := newTestFrame(t, width, height, depth, volume.DiagonalAffine(2, 2, 3), func(x, y, z int) float64 {
		return float64(x+y+z) - 5
	})

	viewer := NewViewer(frame)

	if viewer.width != width {
		t.Errorf("Expected width %d, got %d", width, viewer.width)
	}

	if viewer.height != height {
		t.Errorf("Expected height %d, got %d", height, viewer.height)
	}

	if viewer.depth != depth {
		t.Errorf("Expected depth %d, got %d", depth, viewer.depth)
	}

	if viewer.voxelSize != [3]float64{2, 2, 3} {
		t.Errorf("Expected voxel size [2 2 3], got %v", viewer.voxelSize)
	}

	if viewer.min != -5 || viewer.max != 17 {
		t.Errorf("Expected value range [-5, 17], got [%f, %f]", viewer.min, viewer.max)
	}
}

// TestExtractSlice verifies that slices are correctly extracted from the frame
func TestExtractSlice(t *testing.T) {
	width, height, depth := 10, 8, 5

	// Each slice along Z has a unique value
	frame := newTestFrame(t, width, height, depth, volume.IdentityAffine(), func(x, y, z int) float64 {
		return float64(z)
	})
	viewer := NewViewer(frame)

	for z := 0; z < depth; z++ {
		img, err := viewer.ExtractSlice("z", z)
		if err != nil {
			t.Fatalf("Failed to extract Z slice at position %d: %v", z, err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != width || bounds.Dy() != height {
			t.Errorf("Expected Z slice dimensions %dx%d, got %dx%d",
				width, height, bounds.Dx(), bounds.Dy())
		}

		gray16Img, ok := img.(*image.Gray16)
		if !ok {
			t.Fatalf("Expected *image.Gray16, got %T", img)
		}

		expectedValue := uint16(float64(z) / float64(depth-1) * 65535)
		centerValue := gray16Img.Gray16At(width/2, height/2).Y
		if diff := int(centerValue) - int(expectedValue); diff > 1 || diff < -1 {
			t.Errorf("Expected Z slice value ~%d at center, got %d", expectedValue, centerValue)
		}
	}

	imgX, err := viewer.ExtractSlice("x", width/2)
	if err != nil {
		t.Fatalf("Failed to extract X slice: %v", err)
	}
	boundsX := imgX.Bounds()
	if boundsX.Dx() != depth || boundsX.Dy() != height {
		t.Errorf("Expected X slice dimensions %dx%d, got %dx%d",
			depth, height, boundsX.Dx(), boundsX.Dy())
	}

	imgY, err := viewer.ExtractSlice("Y", height/2)
	if err != nil {
		t.Fatalf("Failed to extract Y slice: %v", err)
	}
	boundsY := imgY.Bounds()
	if boundsY.Dx() != width || boundsY.Dy() != depth {
		t.Errorf("Expected Y slice dimensions %dx%d, got %dx%d",
			width, depth, boundsY.Dx(), boundsY.Dy())
	}

	if _, err := viewer.ExtractSlice("invalid", 0); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}

	if _, err := viewer.ExtractSlice("z", depth); err == nil {
		t.Error("Expected error for out of bounds position, got nil")
	}

	if _, err := viewer.ExtractSlice("z", -1); err == nil {
		t.Error("Expected error for negative position, got nil")
	}
}

// TestExtractSliceNaN verifies that NaN voxels render black and do not
// disturb the intensity range of the other voxels
func TestExtractSliceNaN(t *testing.T) {
	frame := newTestFrame(t, 4, 2, 1, volume.IdentityAffine(), func(x, y, z int) float64 {
		if x == 0 && y == 0 {
			return math.NaN()
		}
		return float64(x)
	})
	viewer := NewViewer(frame)

	img, err := viewer.ExtractSlice("z", 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}
	gray := img.(*image.Gray16)

	if got := gray.Gray16At(0, 0).Y; got != 0 {
		t.Errorf("Expected NaN voxel to map to 0, got %d", got)
	}
	if got := gray.Gray16At(3, 0).Y; got != 65535 {
		t.Errorf("Expected maximum voxel to map to 65535, got %d", got)
	}
	if got := gray.Gray16At(0, 1).Y; got != 0 {
		t.Errorf("Expected minimum voxel to map to 0, got %d", got)
	}

	lo, hi := valueRange([]float64{math.NaN(), math.NaN()})
	if lo != 0 || hi != 0 {
		t.Errorf("Expected range of all-NaN values to be 0..0, got %v..%v", lo, hi)
	}
}

// TestCutOrientation verifies which voxels end up in each cut
func TestCutOrientation(t *testing.T) {
	frame := newTestFrame(t, 3, 4, 5, volume.IdentityAffine(), func(x, y, z int) float64 {
		return float64(100*x + 10*y + z)
	})
	viewer := NewViewer(frame)

	values, cols, rows, err := viewer.Cut("x", 2)
	if err != nil {
		t.Fatalf("Failed to cut: %v", err)
	}
	if cols != 5 || rows != 4 {
		t.Fatalf("Expected 5x4 cut, got %dx%d", cols, rows)
	}
	// column is z, row is y
	if got := values[3*cols+4]; got != 234 {
		t.Errorf("Expected voxel (2,3,4) = 234, got %f", got)
	}

	values, cols, _, err = viewer.Cut("y", 1)
	if err != nil {
		t.Fatalf("Failed to cut: %v", err)
	}
	// column is x, row is z
	if got := values[4*cols+2]; got != 214 {
		t.Errorf("Expected voxel (2,1,4) = 214, got %f", got)
	}
}

// TestPeakPosition verifies that the strongest voxel picks the cut
func TestPeakPosition(t *testing.T) {
	frame := newTestFrame(t, 6, 6, 6, volume.IdentityAffine(), func(x, y, z int) float64 {
		if x == 1 && y == 4 && z == 2 {
			return -9
		}
		if x == 3 && y == 3 && z == 3 {
			return 5
		}
		return 0
	})
	viewer := NewViewer(frame)

	for axis, want := range map[string]int{"x": 1, "y": 4, "z": 2} {
		got, err := viewer.PeakPosition(axis)
		if err != nil {
			t.Fatalf("PeakPosition(%s) failed: %v", axis, err)
		}
		if got != want {
			t.Errorf("Expected peak %s=%d, got %d", axis, want, got)
		}
	}

	if _, err := viewer.PeakPosition("w"); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}

// TestExtractRegion verifies that 3D regions are correctly extracted
func TestExtractRegion(t *testing.T) {
	width, height, depth := 10, 10, 5
	affine := volume.DiagonalAffine(2, 2, 2)
	affine[0][3], affine[1][3], affine[2][3] = -10, -20, -30

	frame := newTestFrame(t, width, height, depth, affine, func(x, y, z int) float64 {
		return float64(x)/float64(width) + float64(y)/float64(height) + float64(z)/float64(depth)
	})
	viewer := NewViewer(frame)

	startX, startY, startZ := 2, 3, 1
	sizeX, sizeY, sizeZ := 4, 3, 2

	region, err := viewer.ExtractRegion(startX, startY, startZ, sizeX, sizeY, sizeZ)
	if err != nil {
		t.Fatalf("Failed to extract region: %v", err)
	}

	if region.Shape() != (volume.Shape{sizeX, sizeY, sizeZ}) {
		t.Errorf("Expected region shape (%d, %d, %d), got %v", sizeX, sizeY, sizeZ, region.Shape())
	}

	for z := 0; z < sizeZ; z++ {
		for y := 0; y < sizeY; y++ {
			for x := 0; x < sizeX; x++ {
				want := frame.At(startX+x, startY+y, startZ+z)
				if got := region.At(x, y, z); got != want {
					t.Errorf("Region value mismatch at (%d,%d,%d): expected %f, got %f", x, y, z, want, got)
				}
			}
		}
	}

	// Voxel (0,0,0) of the region sits where (2,3,1) was.
	origin := region.Affine()
	if origin[0][3] != -6 || origin[1][3] != -14 || origin[2][3] != -28 {
		t.Errorf("Expected region origin (-6, -14, -28), got (%f, %f, %f)", origin[0][3], origin[1][3], origin[2][3])
	}

	if _, err := viewer.ExtractRegion(-1, 0, 0, 1, 1, 1); err == nil {
		t.Error("Expected error for negative start coordinate, got nil")
	}

	if _, err := viewer.ExtractRegion(0, 0, 0, 0, 1, 1); err == nil {
		t.Error("Expected error for zero size, got nil")
	}

	if _, err := viewer.ExtractRegion(width-1, 0, 0, 2, 1, 1); err == nil {
		t.Error("Expected error for region extending beyond volume, got nil")
	}
}

// TestSaveSlice verifies that slices can be saved to disk in both formats
func TestSaveSlice(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir := t.TempDir()
	frame := newTestFrame(t, 10, 10, 5, volume.IdentityAffine(), func(x, y, z int) float64 {
		return float64(x * y)
	})
	viewer := NewViewer(frame)

	img, err := viewer.ExtractSlice("z", 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}

	for _, name := range []string{"test_slice.jpg", "test_slice.png"} {
		filename := filepath.Join(tempDir, name)
		if err := viewer.SaveSlice(img, filename); err != nil {
			t.Fatalf("Failed to save slice: %v", err)
		}

		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Saved file does not exist: %s", filename)
		}
	}
}

// TestSaveSliceSequence verifies that a sequence of slices can be saved
func TestSaveSliceSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir := t.TempDir()
	width, height, depth := 5, 5, 3
	frame := newTestFrame(t, width, height, depth, volume.IdentityAffine(), func(x, y, z int) float64 {
		return 0.5
	})
	viewer := NewViewer(frame)

	outputDir := filepath.Join(tempDir, "slices")
	if err := viewer.SaveSliceSequence("z", outputDir, ""); err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}

	for z := 0; z < depth; z++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_z_%03d.jpg", z))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected slice file does not exist: %s", filename)
		}
	}

	if err := viewer.SaveSliceSequence("invalid", outputDir, "png"); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}

// TestPlotCut verifies that heat map figures are written
func TestPlotCut(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir := t.TempDir()
	frame := newTestFrame(t, 8, 8, 4, volume.DiagonalAffine(3, 3, 3), func(x, y, z int) float64 {
		return float64(x-y) * float64(z)
	})
	viewer := NewViewer(frame)

	filename := filepath.Join(tempDir, "figure.png")
	if err := viewer.PlotCut("z", 2, filename, DefaultPlotOptions()); err != nil {
		t.Fatalf("Failed to plot cut: %v", err)
	}
	info, err := os.Stat(filename)
	if err != nil {
		t.Fatalf("Expected figure to exist: %v", err)
	}
	if info.Size() == 0 {
		t.Error("Expected non-empty figure")
	}

	// A flat cut still renders.
	if err := viewer.PlotCut("z", 0, filepath.Join(tempDir, "flat.png"), PlotOptions{}); err != nil {
		t.Errorf("Failed to plot flat cut: %v", err)
	}

	if err := viewer.PlotCut("q", 0, filepath.Join(tempDir, "bad.png"), PlotOptions{}); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
}
