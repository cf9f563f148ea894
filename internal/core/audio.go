package core

import (
	"context"
	"sync"
)

// Audio is a finished recording.
type Audio struct {
	Data     []byte
	MimeType string
}

// AudioSource acquires an audio input.  Open returns ErrDeviceNotFound when
// no input exists; any other error is reported as an access failure.
type AudioSource interface {
	Open(ctx context.Context) (Capture, error)
}

// Capture is an acquired audio input.  Stop finalises the recording into a
// single blob; Close releases the device and must be called exactly once.
type Capture interface {
	Stop() (Audio, error)
	Close() error
}

// BlobSource serves an already recorded blob, e.g. an uploaded file.
type BlobSource struct {
	Audio Audio
}

// Open fails with ErrDeviceNotFound when the blob is empty.
func (s BlobSource) Open(ctx context.Context) (Capture, error) {
	if len(s.Audio.Data) == 0 {
		return nil, ErrDeviceNotFound
	}
	return &blobCapture{audio: s.Audio}, nil
}

type blobCapture struct {
	mu     sync.Mutex
	audio  Audio
	closed bool
}

func (c *blobCapture) Stop() (Audio, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return Audio{}, ErrInvalidState
	}
	mime := c.audio.MimeType
	if mime == "" {
		mime = "audio/webm"
	}
	return Audio{Data: c.audio.Data, MimeType: mime}, nil
}

func (c *blobCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.audio.Data = nil
	return nil
}
