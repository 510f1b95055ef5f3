package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Generated speech is raw little-endian PCM at these settings.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16

	// HeaderSize is the length of the canonical RIFF/WAVE header.
	HeaderSize = 44
)

const formatPCM = 1

// Format describes the layout of the PCM samples being wrapped.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// DefaultFormat is mono 24 kHz 16-bit, the format the speech models emit.
func DefaultFormat() Format {
	return Format{
		SampleRate:    SampleRate,
		Channels:      ChannelCount,
		BitsPerSample: BitDepth,
	}
}

func (f Format) String() string {
	return fmt.Sprintf("%d Hz/%dch/%d-bit", f.SampleRate, f.Channels, f.BitsPerSample)
}

func (f Format) blockAlign() int {
	return f.Channels * f.BitsPerSample / 8
}

func (f Format) byteRate() int {
	return f.SampleRate * f.blockAlign()
}

// Header is the decoded form of a 44-byte WAV header.
type Header struct {
	RIFFSize      uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// EncodeWAV prepends a WAV header to pcm. The result is always
// HeaderSize+len(pcm) bytes long.
func EncodeWAV(pcm []byte, f Format) []byte {
	out := make([]byte, HeaderSize+len(pcm))
	le := binary.LittleEndian

	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], formatPCM)
	le.PutUint16(out[22:24], uint16(f.Channels))
	le.PutUint32(out[24:28], uint32(f.SampleRate))
	le.PutUint32(out[28:32], uint32(f.byteRate()))
	le.PutUint16(out[32:34], uint16(f.blockAlign()))
	le.PutUint16(out[34:36], uint16(f.BitsPerSample))

	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(len(pcm)))

	copy(out[HeaderSize:], pcm)
	return out
}

// EncodeBase64PCM decodes Base64 PCM and wraps it with EncodeWAV.
func EncodeBase64PCM(data string, f Format) ([]byte, error) {
	c, err := DecodeClip(data, f)
	if err != nil {
		return nil, err
	}
	return c.WAV(), nil
}

// Clip is decoded speech ready for playback.
type Clip struct {
	PCM    []byte
	Format Format
}

// DecodeClip decodes Base64 PCM laid out as f.
func DecodeClip(data string, f Format) (Clip, error) {
	pcm, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return Clip{}, fmt.Errorf("decode pcm: %w", err)
	}
	return Clip{PCM: pcm, Format: f}, nil
}

// WAV returns the clip in a WAV container.
func (c Clip) WAV() []byte {
	return EncodeWAV(c.PCM, c.Format)
}

// Duration is the playing time of the clip.
func (c Clip) Duration() time.Duration {
	rate := c.Format.byteRate()
	if rate == 0 {
		return 0
	}
	return time.Duration(len(c.PCM)) * time.Second / time.Duration(rate)
}

// ParseHeader reads back the header written by EncodeWAV.
func ParseHeader(wav []byte) (Header, error) {
	if len(wav) < HeaderSize {
		return Header{}, errors.New("wav data too short")
	}
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return Header{}, errors.New("not a valid WAV file")
	}
	if string(wav[12:16]) != "fmt " || string(wav[36:40]) != "data" {
		return Header{}, errors.New("unexpected chunk layout")
	}

	le := binary.LittleEndian
	return Header{
		RIFFSize:      le.Uint32(wav[4:8]),
		AudioFormat:   le.Uint16(wav[20:22]),
		Channels:      le.Uint16(wav[22:24]),
		SampleRate:    le.Uint32(wav[24:28]),
		ByteRate:      le.Uint32(wav[28:32]),
		BlockAlign:    le.Uint16(wav[32:34]),
		BitsPerSample: le.Uint16(wav[34:36]),
		DataSize:      le.Uint32(wav[40:44]),
	}, nil
}
