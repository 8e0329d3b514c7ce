package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// FrameCallback receives each decoded JPEG frame. The buffer belongs to the
// callback after the call returns.
type FrameCallback func(frame []byte) error

// Source produces frames from one camera connection. Run blocks until the
// context is cancelled or the connection ends; a non-nil error means the
// handle is invalid and the caller must reopen with a fresh Source.
type Source interface {
	Run(ctx context.Context, onFrame FrameCallback) error
	Stop()
}

// SourceFactory opens a new connection to the given camera address. Each
// reconnect attempt gets a fresh Source.
type SourceFactory func(url string, fps, width int) Source

// FFmpegSource pulls JPEG frames out of a camera stream with an ffmpeg
// child process (image2pipe/mjpeg).
type FFmpegSource struct {
	url   string
	fps   int
	width int

	mu     sync.Mutex
	cancel context.CancelFunc
	cmd    *exec.Cmd
}

// NewFFmpegSource is the production SourceFactory.
func NewFFmpegSource(url string, fps, width int) Source {
	return &FFmpegSource{url: url, fps: fps, width: width}
}

// Run starts ffmpeg and feeds extracted frames to the callback until the
// context is cancelled or the stream ends.
func (f *FFmpegSource) Run(ctx context.Context, onFrame FrameCallback) error {
	ctx, cancel := context.WithCancel(ctx)
	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	defer cancel()

	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
	}

	// Protocol-specific socket timeouts keep a dead camera from hanging the open.
	if strings.HasPrefix(f.url, "rtsp://") || strings.HasPrefix(f.url, "rtsps://") {
		args = append(args,
			"-rtsp_transport", "tcp",
			"-stimeout", "5000000", // microseconds
			"-timeout", "5000000",
		)
	} else if strings.HasPrefix(f.url, "http://") || strings.HasPrefix(f.url, "https://") {
		args = append(args,
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_delay_max", "5",
			"-timeout", "10000000",
		)
	}

	args = append(args,
		"-i", f.url,
		"-vf", fmt.Sprintf("fps=%d,scale=%d:-1", f.fps, f.width),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "5",
		"pipe:1",
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	f.mu.Lock()
	f.cmd = cmd
	f.mu.Unlock()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	// Reap the child on every exit path. Cancel first so Wait never blocks
	// on a process that is still streaming.
	defer func() {
		cancel()
		_ = cmd.Wait()
	}()

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			slog.Warn("ffmpeg stderr", "url", f.url, "output", scanner.Text())
		}
	}()

	if err := readJPEGStream(ctx, stdout, onFrame); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read frames: %w", err)
	}

	return nil
}

// Stop terminates the ffmpeg process.
func (f *FFmpegSource) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
	}
	if f.cmd != nil && f.cmd.Process != nil {
		_ = f.cmd.Process.Kill()
	}
}

const maxFrameBytes = 10 * 1024 * 1024

// readJPEGStream reads a stream of concatenated JPEG images and hands each
// one to the callback. Tolerates up to 5s of EOF while ffmpeg is still
// connecting to the camera.
func readJPEGStream(ctx context.Context, r io.Reader, onFrame FrameCallback) error {
	reader := bufio.NewReaderSize(r, 512*1024)
	framesRead := 0
	const maxStartupRetries = 50 // 50 * 100ms
	startupRetries := 0

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// SOI marker: FF D8
		if err := findJPEGStart(reader); err != nil {
			if err == io.EOF {
				if framesRead == 0 && startupRetries < maxStartupRetries {
					startupRetries++
					time.Sleep(100 * time.Millisecond)
					continue
				}
				if framesRead > 0 {
					return nil // stream ended after producing frames
				}
				return fmt.Errorf("no frames received (waited %.1fs)", float64(startupRetries)*0.1)
			}
			return err
		}

		// Read until EOI marker: FF D9
		frame, err := readUntilJPEGEnd(reader)
		if err != nil {
			if err == io.EOF && framesRead > 0 {
				return nil // stream ended mid-frame
			}
			return err
		}

		if len(frame) > 0 {
			framesRead++
			if err := onFrame(frame); err != nil {
				slog.Warn("frame callback error", "error", err)
			}
		}
	}
}

func findJPEGStart(r *bufio.Reader) error {
	for {
		b, err := r.ReadByte()
		if err != nil {
			return err
		}
		if b != 0xFF {
			continue
		}
		b, err = r.ReadByte()
		if err != nil {
			return err
		}
		if b == 0xD8 {
			return nil
		}
	}
}

func readUntilJPEGEnd(r *bufio.Reader) ([]byte, error) {
	data := []byte{0xFF, 0xD8}

	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		data = append(data, b)

		if b == 0xFF {
			next, err := r.ReadByte()
			if err != nil {
				return nil, err
			}
			data = append(data, next)
			if next == 0xD9 {
				return data, nil
			}
		}

		if len(data) > maxFrameBytes {
			return nil, fmt.Errorf("jpeg frame too large: %d bytes", len(data))
		}
	}
}
