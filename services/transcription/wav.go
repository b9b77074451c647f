package transcription

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"lexconnect/utils"
)

const (
	MaxDuration   = 60 * time.Second
	MaxFileSize   = 5 * 1024 * 1024
	SampleRate    = 16000
	pcmFormat     = 1
	bitsPerSample = 16
)

var ErrInvalidAudio = fmt.Errorf("invalid audio: %w", utils.ErrInvalid)

// WaveInfo is the subset of a RIFF/WAVE header needed for validation.
type WaveInfo struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BitsPerSample uint16
	DataSize      uint32
}

func (w WaveInfo) Duration() time.Duration {
	if w.ByteRate == 0 {
		return 0
	}
	return time.Duration(float64(w.DataSize) / float64(w.ByteRate) * float64(time.Second))
}

// ParseWave walks the RIFF chunks until it finds "fmt " and "data". Extra
// chunks such as LIST are skipped.
func ParseWave(data []byte) (*WaveInfo, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("not a RIFF/WAVE file: %w", ErrInvalidAudio)
	}
	var info WaveInfo
	var haveFmt bool
	r := bytes.NewReader(data[12:])
	for {
		var id [4]byte
		var size uint32
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			break
		}
		if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
			break
		}
		switch string(id[:]) {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("short fmt chunk: %w", ErrInvalidAudio)
			}
			var hdr struct {
				AudioFormat   uint16
				Channels      uint16
				SampleRate    uint32
				ByteRate      uint32
				BlockAlign    uint16
				BitsPerSample uint16
			}
			if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
				return nil, fmt.Errorf("truncated fmt chunk: %w", ErrInvalidAudio)
			}
			info.AudioFormat = hdr.AudioFormat
			info.Channels = hdr.Channels
			info.SampleRate = hdr.SampleRate
			info.ByteRate = hdr.ByteRate
			info.BitsPerSample = hdr.BitsPerSample
			haveFmt = true
			if _, err := r.Seek(int64(size-16+size%2), io.SeekCurrent); err != nil {
				return nil, ErrInvalidAudio
			}
		case "data":
			if !haveFmt {
				return nil, fmt.Errorf("data chunk before fmt chunk: %w", ErrInvalidAudio)
			}
			info.DataSize = size
			return &info, nil
		default:
			if _, err := r.Seek(int64(size+size%2), io.SeekCurrent); err != nil {
				return nil, ErrInvalidAudio
			}
		}
	}
	return nil, fmt.Errorf("missing data chunk: %w", ErrInvalidAudio)
}

// ValidateWave checks the upload is 16 kHz mono 16-bit PCM within the
// size and duration limits.
func ValidateWave(data []byte) (*WaveInfo, error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("audio exceeds %d bytes: %w", MaxFileSize, ErrInvalidAudio)
	}
	info, err := ParseWave(data)
	if err != nil {
		return nil, err
	}
	switch {
	case info.AudioFormat != pcmFormat:
		return nil, fmt.Errorf("audio must be PCM: %w", ErrInvalidAudio)
	case info.Channels != 1:
		return nil, fmt.Errorf("audio must be mono: %w", ErrInvalidAudio)
	case info.SampleRate != SampleRate:
		return nil, fmt.Errorf("audio must be sampled at %d Hz: %w", SampleRate, ErrInvalidAudio)
	case info.BitsPerSample != bitsPerSample:
		return nil, fmt.Errorf("audio must be 16-bit: %w", ErrInvalidAudio)
	case info.Duration() > MaxDuration:
		return nil, fmt.Errorf("audio longer than %s: %w", MaxDuration, ErrInvalidAudio)
	}
	return info, nil
}
