package nifti

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	log "github.com/sirupsen/logrus"

	"niimgs/pkg/volume"
)

// Save writes img as a single-file NIfTI-1 image with float64 voxels. The
// file is gzip-compressed when path ends in ".gz". Sequences are written
// one frame at a time, so lazily opened sequences are never fully loaded.
func Save(path string, img volume.Image) (err error) {
	var (
		seq    *volume.Sequence
		frames int
	)
	switch img := img.(type) {
	case *volume.Frame:
		if seq, err = volume.ToSequence(img); err != nil {
			return err
		}
	case *volume.Sequence:
		seq, frames = img, img.Len()
	default:
		return fmt.Errorf("cannot save image of type %T", img)
	}

	shape := seq.FrameShape()
	for _, n := range append(shape[:], frames) {
		if n > math.MaxInt16 {
			return fmt.Errorf("dimension %d too large for nifti1", n)
		}
	}

	// Frames go to a temporary file that replaces path only once complete.
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating output directory: %w", err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			f.Close()
			os.Remove(f.Name())
		}
	}()

	bw := bufio.NewWriter(f)
	var (
		w  io.Writer = bw
		zw *gzip.Writer
	)
	if isCompressed(path) {
		zw = gzip.NewWriter(bw)
		w = zw
	}

	if err := writeImage(w, newHeader(shape, frames, seq.Affine()), seq); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := f.Chmod(0644); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(f.Name(), path); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"path":   path,
		"shape":  shape,
		"frames": frames,
	}).Debug("Saved image")
	return nil
}

func writeImage(w io.Writer, h *Header, seq *volume.Sequence) error {
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return err
	}
	if _, err := w.Write(make([]byte, extensionSize)); err != nil {
		return err
	}

	buf := make([]byte, seq.FrameShape().Voxels()*8)
	it := volume.IterFrames(seq)
	for it.Next() {
		for i, v := range it.Frame().Data() {
			binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
		}
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("writing frame %d: %w", it.Index()+1, err)
	}
	return nil
}
