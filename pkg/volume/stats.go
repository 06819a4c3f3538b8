package volume

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics of a frame's voxels.
type Summary struct {
	Mean    float64
	Std     float64
	Min     float64
	Max     float64
	NonZero int
}

// Summarize computes voxel statistics for f.
func Summarize(f *Frame) Summary {
	mean, std := stat.MeanStdDev(f.data, nil)
	s := Summary{
		Mean: mean,
		Std:  std,
		Min:  floats.Min(f.data),
		Max:  floats.Max(f.data),
	}
	for _, v := range f.data {
		if v != 0 {
			s.NonZero++
		}
	}
	return s
}

func (s Summary) String() string {
	return fmt.Sprintf("mean=%.4f std=%.4f min=%.4f max=%.4f nonzero=%d", s.Mean, s.Std, s.Min, s.Max, s.NonZero)
}
