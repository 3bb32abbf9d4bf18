package myaudio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/kuzamma/surah-recognition-go/internal/errors"
)

// Info describes a WAV recording's format and length.
type Info struct {
	SampleRate  int
	NumChannels int
	BitDepth    int
	Duration    time.Duration
}

// Seconds returns the clip length in seconds.
func (i *Info) Seconds() float64 {
	return i.Duration.Seconds()
}

// Validate checks the recording against the classifier's expected input
// format (mono, 22050 Hz, 16-bit PCM).
func (i *Info) Validate() error {
	if i.SampleRate != SampleRate || i.NumChannels != NumChannels || i.BitDepth != BitDepth {
		return errors.Newf("unexpected recording format %d Hz / %d ch / %d-bit, want %d Hz / %d ch / %d-bit",
			i.SampleRate, i.NumChannels, i.BitDepth, SampleRate, NumChannels, BitDepth).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Build()
	}
	return nil
}

// ReadWAVInfo decodes the header of the WAV file at path.
func ReadWAVInfo(path string) (*Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryResource).
			Context("path", path).
			Build()
	}
	defer file.Close()

	info, err := decodeWAVInfo(file)
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Context("path", path).
			Build()
	}
	return info, nil
}

// ReadWAVInfoBuffer decodes the header of an in-memory WAV recording, such
// as an upload that never touched disk.
func ReadWAVInfoBuffer(data []byte) (*Info, error) {
	info, err := decodeWAVInfo(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryAudio).
			Build()
	}
	return info, nil
}

func decodeWAVInfo(r io.ReadSeeker) (*Info, error) {
	decoder := wav.NewDecoder(r)
	decoder.ReadInfo()
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("input is not a valid WAV audio file")
	}

	duration, err := decoder.Duration()
	if err != nil {
		return nil, fmt.Errorf("failed to read WAV duration: %w", err)
	}

	return &Info{
		SampleRate:  int(decoder.SampleRate),
		NumChannels: int(decoder.NumChans),
		BitDepth:    int(decoder.BitDepth),
		Duration:    duration,
	}, nil
}

// seekableBuffer extends bytes.Buffer with a Seek method so the WAV encoder
// can finalize headers in memory.
type seekableBuffer struct {
	bytes.Buffer
	pos int64
}

func (sb *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case 0:
		newPos = offset
	case 1:
		newPos = sb.pos + offset
	case 2:
		newPos = int64(sb.Len()) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if newPos < 0 {
		return 0, fmt.Errorf("negative position %d", newPos)
	}
	if newPos > int64(sb.Len()) {
		padding := make([]byte, newPos-int64(sb.Len()))
		if _, err := sb.Write(padding); err != nil {
			return 0, err
		}
	}
	sb.pos = newPos
	return newPos, nil
}

func (sb *seekableBuffer) Write(p []byte) (int, error) {
	if sb.pos < int64(sb.Len()) {
		existing := sb.Bytes()
		n := copy(existing[sb.pos:], p)
		if n < len(p) {
			written, err := sb.Buffer.Write(p[n:])
			sb.pos += int64(n + written)
			return n + written, err
		}
		sb.pos += int64(n)
		return n, nil
	}
	n, err := sb.Buffer.Write(p)
	sb.pos += int64(n)
	return n, err
}

// EncodePCMtoWAV wraps raw 16-bit little-endian PCM data in the expected
// recording format into an in-memory WAV container.
func EncodePCMtoWAV(pcmData []byte) (*bytes.Buffer, error) {
	if len(pcmData) == 0 {
		return nil, errors.Newf("pcm data is empty").
			Component("myaudio").
			Category(errors.CategoryAudio).
			Build()
	}

	buf := &seekableBuffer{}
	enc := wav.NewEncoder(buf, SampleRate, BitDepth, NumChannels, 1)

	intBuf := &audio.IntBuffer{
		Data:   byteSliceToInts(pcmData),
		Format: &audio.Format{SampleRate: SampleRate, NumChannels: NumChannels},
	}
	if err := enc.Write(intBuf); err != nil {
		return nil, fmt.Errorf("failed to write to WAV encoder: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize WAV encoding: %w", err)
	}

	return &buf.Buffer, nil
}

// byteSliceToInts converts a byte slice to a slice of integers. Each pair of
// bytes is treated as a single 16-bit sample.
func byteSliceToInts(pcmData []byte) []int {
	samples := make([]int, 0, len(pcmData)/2)
	buf := bytes.NewBuffer(pcmData)
	for {
		var sample int16
		if err := binary.Read(buf, binary.LittleEndian, &sample); err != nil {
			break
		}
		samples = append(samples, int(sample))
	}
	return samples
}
