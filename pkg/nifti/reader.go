package nifti

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"

	"niimgs/pkg/volume"
)

// Load reads a whole image into memory. A 3D file yields a *volume.Frame
// and a 4D file a dense *volume.Sequence, even when it holds one frame.
func Load(path string) (volume.Image, error) {
	rc, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	h, order, err := ReadHeader(rc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	shape, frames, err := h.Layout()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	dec, err := newDecoder(h, order)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if skip := h.dataStart() - headerSize; skip > 0 {
		if _, err := io.CopyN(io.Discard, rc, skip); err != nil {
			return nil, fmt.Errorf("%s: seeking to voxel data: %w", path, err)
		}
	}

	count := shape.Voxels()
	if frames > 0 {
		count *= frames
	}
	if !isCompressed(path) {
		if err := checkSize(path, h.dataStart()+int64(count*dec.dt.size)); err != nil {
			return nil, err
		}
	}
	raw := make([]byte, count*dec.dt.size)
	if _, err := io.ReadFull(rc, raw); err != nil {
		return nil, fmt.Errorf("%s: reading %d voxels: %w", path, count, err)
	}
	data := make([]float64, count)
	dec.decode(raw, data)

	log.WithFields(log.Fields{
		"path":   path,
		"shape":  shape,
		"frames": frames,
		"dtype":  dec.dt.name,
	}).Debug("Loaded image")

	affine, err := h.Affine()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if frames == 0 {
		frame, err := volume.NewFrame(shape, data, affine)
		if err != nil {
			return nil, err
		}
		return frame, nil
	}
	seq, err := volume.NewSequence(shape, frames, data, affine)
	if err != nil {
		return nil, err
	}
	return seq, nil
}

// Open returns a sequence that reads each frame from disk only when it is
// requested, keeping a single frame in memory at a time. Compressed files
// cannot be read at an offset and are loaded whole; 3D files become a
// sequence of one frame.
func Open(path string) (*volume.Sequence, error) {
	if isCompressed(path) {
		log.WithField("path", path).Debug("Compressed image, loading all frames")
		return loadSequence(path)
	}

	h, order, err := readHeaderFile(path)
	if err != nil {
		return nil, err
	}
	shape, frames, err := h.Layout()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if frames == 0 {
		return loadSequence(path)
	}
	dec, err := newDecoder(h, order)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	frameBytes := int64(shape.Voxels() * dec.dt.size)
	start := h.dataStart()
	if err := checkSize(path, start+frameBytes*int64(frames)); err != nil {
		return nil, err
	}

	affine, err := h.Affine()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sources := make([]volume.FrameSource, frames)
	for i := range sources {
		sources[i] = windowSource{
			path:   path,
			offset: start + int64(i)*frameBytes,
			size:   frameBytes,
			shape:  shape,
			affine: affine,
			dec:    dec,
		}
	}

	log.WithFields(log.Fields{
		"path":   path,
		"shape":  shape,
		"frames": frames,
	}).Debug("Opened image lazily")

	return volume.FromSources(shape, affine, sources)
}

// OpenSeries stacks a list of 3D files into a sequence. Headers are read
// up front so shape and affine mismatches are reported immediately; voxel
// data is loaded when a frame is requested.
func OpenSeries(paths []string) (*volume.Sequence, error) {
	if len(paths) == 0 {
		return nil, volume.ErrEmptyInput
	}

	var (
		refShape  volume.Shape
		refAffine volume.Affine
	)
	sources := make([]volume.FrameSource, len(paths))
	for i, path := range paths {
		h, _, err := readHeaderFile(path)
		if err != nil {
			return nil, err
		}
		shape, frames, err := h.Layout()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if frames > 1 {
			return nil, fmt.Errorf("%s: expected a 3D image, found %d frames", path, frames)
		}
		affine, err := h.Affine()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		if i == 0 {
			refShape, refAffine = shape, affine
		} else if shape != refShape {
			return nil, &volume.ShapeError{Position: i, Want: refShape, Got: shape}
		} else if !affine.Equal(refAffine) {
			return nil, &volume.AffineError{Position: i, Want: refAffine, Got: affine}
		}

		sources[i] = volume.FrameSourceFunc(func() (*volume.Frame, error) {
			return loadFrame(path)
		})
	}
	return volume.FromSources(refShape, refAffine, sources)
}

// windowSource reads one frame-sized block of an uncompressed file.
type windowSource struct {
	path   string
	offset int64
	size   int64
	shape  volume.Shape
	affine volume.Affine
	dec    *decoder
}

func (w windowSource) LoadFrame() (*volume.Frame, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw := make([]byte, w.size)
	if _, err := f.ReadAt(raw, w.offset); err != nil {
		return nil, fmt.Errorf("%s: reading frame at offset %d: %w", w.path, w.offset, err)
	}
	data := make([]float64, w.shape.Voxels())
	w.dec.decode(raw, data)
	return volume.NewFrame(w.shape, data, w.affine)
}

func loadSequence(path string) (*volume.Sequence, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return volume.ToSequence(img)
}

// loadFrame loads a file that must hold exactly one 3D volume.
func loadFrame(path string) (*volume.Frame, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	switch img := img.(type) {
	case *volume.Frame:
		return img, nil
	case *volume.Sequence:
		if img.Len() != 1 {
			return nil, fmt.Errorf("%s: expected a 3D image, found %d frames", path, img.Len())
		}
		return img.Frame(0)
	default:
		return nil, fmt.Errorf("%s: unexpected image type %T", path, img)
	}
}

func readHeaderFile(path string) (*Header, binary.ByteOrder, error) {
	rc, err := openFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	h, order, err := ReadHeader(rc)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, order, nil
}

// checkSize fails with ErrTruncated when the file at path holds fewer than
// need bytes, before anything that large is allocated.
func checkSize(path string, need int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() < need {
		return fmt.Errorf("%s: %w: %d bytes, expected at least %d", path, ErrTruncated, info.Size(), need)
	}
	return nil
}

func isCompressed(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

// gzipFile closes both the decompressor and the file underneath it.
type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g gzipFile) Close() error {
	gerr := g.Reader.Close()
	if err := g.f.Close(); err != nil {
		return err
	}
	return gerr
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !isCompressed(path) {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return gzipFile{Reader: zr, f: f}, nil
}
