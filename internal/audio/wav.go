// Package audio converts between the raw PCM16 sample format spoken by the
// realtime backend and formats conventional consumers understand.
package audio

import "encoding/binary"

// DefaultSampleRate is the backend's output sample rate in Hz.
const DefaultSampleRate = 24000

const (
	numChannels   = 1
	bitsPerSample = 16
	headerSize    = 44
)

// WrapPCM16 wraps raw little-endian 16-bit mono PCM in a RIFF/WAVE header so
// the result is independently decodable. Odd-length input is truncated by one
// byte; empty input yields nil.
func WrapPCM16(pcm []byte, sampleRate int) []byte {
	if len(pcm) == 0 {
		return nil
	}
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if len(pcm)%2 != 0 {
		pcm = pcm[:len(pcm)-1]
	}

	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8
	dataSize := len(pcm)

	out := make([]byte, headerSize+dataSize)
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM
	binary.LittleEndian.PutUint16(out[22:24], numChannels)
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))
	copy(out[headerSize:], pcm)
	return out
}
