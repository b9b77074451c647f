package transcription

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexconnect/utils"
)

func wav(channels uint16, rate uint32, bits uint16, seconds float64, extraChunk bool) []byte {
	byteRate := rate * uint32(channels) * uint32(bits) / 8
	dataSize := uint32(float64(byteRate) * seconds)
	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(0))
	b.WriteString("WAVE")
	if extraChunk {
		b.WriteString("LIST")
		binary.Write(&b, binary.LittleEndian, uint32(3))
		b.Write([]byte{1, 2, 3, 0})
	}
	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, channels)
	binary.Write(&b, binary.LittleEndian, rate)
	binary.Write(&b, binary.LittleEndian, byteRate)
	binary.Write(&b, binary.LittleEndian, channels*bits/8)
	binary.Write(&b, binary.LittleEndian, bits)
	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, dataSize)
	b.Write(make([]byte, 64))
	return b.Bytes()
}

func TestValidateWave(t *testing.T) {
	info, err := ValidateWave(wav(1, 16000, 16, 2, false))
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, info.Duration())

	_, err = ValidateWave(wav(1, 16000, 16, 2, true))
	assert.NoError(t, err, "unknown chunks are skipped")

	cases := map[string][]byte{
		"stereo":    wav(2, 16000, 16, 2, false),
		"44.1kHz":   wav(1, 44100, 16, 2, false),
		"8-bit":     wav(1, 16000, 8, 2, false),
		"too long":  wav(1, 16000, 16, 61, false),
		"not a wav": []byte("ID3 this is an mp3 file"),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateWave(data)
			assert.ErrorIs(t, err, ErrInvalidAudio)
			assert.ErrorIs(t, err, utils.ErrInvalid)
		})
	}
}

func TestTranscribeJoinsBestAlternatives(t *testing.T) {
	var got *speechpb.RecognizeRequest
	tr := &GoogleTranscriber{recognize: func(_ context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		got = req
		return &speechpb.RecognizeResponse{Results: []*speechpb.SpeechRecognitionResult{
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "My landlord "}, {Transcript: "ignored"}}},
			{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "kept my deposit."}}},
		}}, nil
	}}

	text, err := tr.Transcribe(context.Background(), wav(1, 16000, 16, 1, false), "")
	require.NoError(t, err)
	assert.Equal(t, "My landlord kept my deposit.", text)
	assert.Equal(t, DefaultLanguage, got.Config.LanguageCode)
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, got.Config.Encoding)
}

func TestTranscribeUpstreamFailure(t *testing.T) {
	tr := &GoogleTranscriber{recognize: func(context.Context, *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return nil, errors.New("quota")
	}}
	_, err := tr.Transcribe(context.Background(), wav(1, 16000, 16, 1, false), "en-GB")
	assert.ErrorIs(t, err, utils.ErrUnavailable)
}
