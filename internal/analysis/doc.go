// Package analysis post-processes solved jump trajectories.
//
//   - [Resample]: linear interpolation onto a uniform time grid
//   - [Transitions]: times at which the jumper changes regime
//   - [Lowest] and [Rebounds]: extremes of the height series
//   - [PowerSpectrum] and [DominantFrequency]: oscillation spectrum via gonum's FFT
//
// The adaptive solver produces unevenly spaced samples, so spectral
// analysis should be run on a resampled trajectory:
//
//	uniform, _ := analysis.Resample(traj, 1024)
//	f, _ := analysis.DominantFrequency(uniform.Positions(), uniform.Times[1]-uniform.Times[0])
package analysis
