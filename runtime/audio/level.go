package audio

import (
	"encoding/binary"
	"math"
)

const (
	pcmBytesPerSample = 2
	pcmMaxAmplitude   = 32768.0

	// SilenceRMS is the normalized RMS below which PCM16 audio is treated as silence.
	SilenceRMS = 0.01
)

// Level computes the normalized RMS (0.0-1.0) of 16-bit little-endian PCM audio.
func Level(pcm []byte) float64 {
	numSamples := len(pcm) / pcmBytesPerSample
	if numSamples == 0 {
		return 0
	}

	var sumSquares float64
	for i := 0; i < numSamples; i++ {
		// #nosec G115 -- overflow is intentional for signed PCM conversion
		sample := int16(binary.LittleEndian.Uint16(pcm[i*pcmBytesPerSample:]))
		normalized := float64(sample) / pcmMaxAmplitude
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(numSamples))
}

// IsSilent reports whether PCM16 audio stays under SilenceRMS.
func IsSilent(pcm []byte) bool {
	return Level(pcm) < SilenceRMS
}
