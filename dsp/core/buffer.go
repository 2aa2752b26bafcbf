package core

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// NewPlanar allocates channels independent sample slices of n samples each,
// backed by one contiguous array.
func NewPlanar(channels, n int) [][]float64 {
	if channels <= 0 || n < 0 {
		return nil
	}

	backing := make([]float64, channels*n)

	out := make([][]float64, channels)
	for ch := range out {
		out[ch] = backing[ch*n : (ch+1)*n : (ch+1)*n]
	}

	return out
}

// Deinterleave splits frames of interleaved samples into planar dst.
// It copies min(len(dst[ch]), len(src)/channels) frames and returns that count.
func Deinterleave(dst [][]float64, src []float32) int {
	channels := len(dst)
	if channels == 0 {
		return 0
	}

	frames := len(src) / channels
	for ch := range dst {
		frames = min(frames, len(dst[ch]))
	}

	for i := range frames {
		base := i * channels
		for ch := range dst {
			dst[ch][i] = float64(src[base+ch])
		}
	}

	return frames
}

// Interleave writes frames planar samples from src into dst, which must hold
// frames*len(src) values.
func Interleave(dst []float32, src [][]float64, frames int) {
	channels := len(src)
	for i := range frames {
		base := i * channels
		for ch := range src {
			dst[base+ch] = float32(src[ch][i])
		}
	}
}
