package analysis

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of the non-negative frequency
// coefficients of the mean-removed series.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	centered := make([]float64, len(data))
	copy(centered, data)
	floats.AddConst(-stat.Mean(data, nil), centered)

	fft := fourier.NewFFT(len(centered))
	coeff := fft.Coefficients(nil, centered)

	ps := make([]float64, len(coeff))
	for i, c := range coeff {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC
// component of a series sampled every dt seconds.
func DominantFrequency(data []float64, dt float64) (float64, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("spectrum: need at least 4 samples, got %d", len(data))
	}
	if dt <= 0 {
		return 0, fmt.Errorf("spectrum: sample interval must be positive, got %g", dt)
	}

	ps := PowerSpectrum(data)
	peak := 1 + floats.MaxIdx(ps[1:])

	fft := fourier.NewFFT(len(data))
	return fft.Freq(peak) / dt, nil
}
