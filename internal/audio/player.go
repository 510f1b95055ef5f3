package audio

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"go.uber.org/zap"
)

// ErrFormat is returned when a clip does not match what the device was
// opened for.
var ErrFormat = errors.New("unsupported audio format")

// Player plays decoded clips.
type Player interface {
	// Play blocks until playback finishes or Stop is called.
	Play(c Clip) error
	Stop()
}

// pollInterval is how often playback completion is checked; oto has no
// completion callback.
const pollInterval = 10 * time.Millisecond

// DevicePlayer plays clips on the system output device via oto.
type DevicePlayer struct {
	ctx    *oto.Context
	format Format
	log    *zap.Logger

	mu   sync.Mutex
	stop chan struct{}
}

var (
	deviceOnce sync.Once
	deviceCtx  *oto.Context
	deviceErr  error
)

// NewDevicePlayer opens the audio device for speech clips. oto allows one
// context per process, so every DevicePlayer shares it.
func NewDevicePlayer(log *zap.Logger) (*DevicePlayer, error) {
	f := DefaultFormat()
	deviceOnce.Do(func() {
		var ready chan struct{}
		deviceCtx, ready, deviceErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   f.SampleRate,
			ChannelCount: f.Channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if deviceErr == nil {
			<-ready
		}
	})
	if deviceErr != nil {
		return nil, fmt.Errorf("init audio device: %w", deviceErr)
	}

	log.Debug("audio device ready", zap.Stringer("format", f))
	return &DevicePlayer{ctx: deviceCtx, format: f, log: log}, nil
}

// Play streams c.PCM to the device. A clip in another format is refused
// rather than resampled.
func (p *DevicePlayer) Play(c Clip) error {
	if c.Format != p.format {
		return fmt.Errorf("%w: clip is %s, device plays %s", ErrFormat, c.Format, p.format)
	}

	stop := make(chan struct{})
	p.mu.Lock()
	if p.stop != nil {
		close(p.stop)
	}
	p.stop = stop
	p.mu.Unlock()

	out := p.ctx.NewPlayer(bytes.NewReader(c.PCM))
	out.Play()
	p.log.Debug("playing clip", zap.Duration("length", c.Duration()))

	tick := time.NewTicker(pollInterval)
	defer tick.Stop()
wait:
	for out.IsPlaying() {
		select {
		case <-stop:
			out.Pause()
			p.log.Debug("playback interrupted")
			break wait
		case <-tick.C:
		}
	}

	p.mu.Lock()
	if p.stop == stop {
		p.stop = nil
	}
	p.mu.Unlock()
	return out.Close()
}

// Stop interrupts the current playback. Safe to call when idle.
func (p *DevicePlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		close(p.stop)
		p.stop = nil
	}
}

// FilePlayer is used when no audio device is available. It writes each
// clip to Dir as a WAV file so it can be opened with an external player.
type FilePlayer struct {
	Dir string
	log *zap.Logger

	mu   sync.Mutex
	Last string
}

// NewFilePlayer creates a FilePlayer writing into dir.
func NewFilePlayer(dir string, log *zap.Logger) *FilePlayer {
	return &FilePlayer{Dir: dir, log: log}
}

func (p *FilePlayer) Play(c Clip) error {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	name := filepath.Join(p.Dir, fmt.Sprintf("overview-%d.wav", time.Now().UnixMilli()))
	if err := os.WriteFile(name, c.WAV(), 0o644); err != nil {
		return fmt.Errorf("write audio file: %w", err)
	}

	p.mu.Lock()
	p.Last = name
	p.mu.Unlock()

	p.log.Info("audio written to file", zap.String("path", name), zap.Duration("length", c.Duration()))
	return nil
}

func (p *FilePlayer) Stop() {}

// LastPath returns the most recently written file.
func (p *FilePlayer) LastPath() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Last
}

// NewPlayer prefers the audio device and falls back to writing files.
func NewPlayer(fallbackDir string, log *zap.Logger) Player {
	dp, err := NewDevicePlayer(log)
	if err != nil {
		log.Warn("audio device unavailable, writing clips to disk",
			zap.String("dir", fallbackDir), zap.Error(err))
		return NewFilePlayer(fallbackDir, log)
	}
	return dp
}
