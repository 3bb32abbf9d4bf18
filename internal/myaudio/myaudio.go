// Package myaudio provides access to recorded audio clips and validation of
// their format against the remote classifier's expected input.
package myaudio

import (
	"bytes"
	"io"
	"os"
	"time"

	"github.com/kuzamma/surah-recognition-go/internal/errors"
)

// Expected recording format, matching the remote service's input contract.
// The recording collaborator must satisfy this; the pipeline does not
// re-encode.
const (
	SampleRate  = 22050
	NumChannels = 1
	BitDepth    = 16
)

// Source is an opaque handle to recorded audio from which bytes can be read
// for upload.
type Source interface {
	// Open returns a fresh reader over the audio bytes.
	Open() (io.ReadCloser, error)
	// Name returns the filename to present to the remote service.
	Name() string
}

// FileSource is a Source backed by a file on disk.
type FileSource struct {
	path string
}

// NewFileSource wraps the recording at path as an upload source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Open implements Source.
func (f *FileSource) Open() (io.ReadCloser, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, errors.New(err).
			Component("myaudio").
			Category(errors.CategoryResource).
			Context("path", f.path).
			Build()
	}
	return file, nil
}

// Name implements Source.
func (f *FileSource) Name() string {
	return f.path
}

// Path returns the underlying file path.
func (f *FileSource) Path() string {
	return f.path
}

// BufferSource is an in-memory Source, used for uploads received over HTTP.
type BufferSource struct {
	name string
	data []byte
}

// NewBufferSource wraps already-read audio bytes as an upload source.
func NewBufferSource(name string, data []byte) *BufferSource {
	return &BufferSource{name: name, data: data}
}

// Open implements Source.
func (b *BufferSource) Open() (io.ReadCloser, error) {
	if len(b.data) == 0 {
		return nil, errors.Newf("audio buffer is empty").
			Component("myaudio").
			Category(errors.CategoryResource).
			Build()
	}
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// Name implements Source.
func (b *BufferSource) Name() string {
	return b.name
}

// Len returns the buffered audio size in bytes.
func (b *BufferSource) Len() int {
	return len(b.data)
}

// PCMDuration computes the play time of raw PCM data in the expected format.
func PCMDuration(pcmData []byte) time.Duration {
	bytesPerSecond := SampleRate * NumChannels * (BitDepth / 8)
	if bytesPerSecond == 0 || len(pcmData) == 0 {
		return 0
	}
	return time.Duration(float64(len(pcmData)) / float64(bytesPerSecond) * float64(time.Second))
}
