package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

const (
	maxFrameBytes = 10 << 20
	readerBytes   = 512 << 10
	jpegQuality   = "5"
)

var errNoFrames = errors.New("feed produced no frames")

// FrameCallback receives one JPEG frame. The slice is owned by the callee.
type FrameCallback func(frame []byte) error

// FFmpegExtractor samples a CCTV feed into JPEG frames by piping ffmpeg's
// mjpeg output. Binary defaults to "ffmpeg" on PATH.
type FFmpegExtractor struct {
	Binary string

	mu     sync.Mutex
	cancel context.CancelFunc
}

// StartExtraction runs ffmpeg against streamURL and calls callback for every
// frame until the feed ends, ctx is cancelled or Stop is called.
func (f *FFmpegExtractor) StartExtraction(ctx context.Context, streamURL string, fps, width int, callback FrameCallback) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	f.mu.Lock()
	f.cancel = cancel
	f.mu.Unlock()

	binary := f.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary, ffmpegArgs(streamURL, fps, width)...)
	cmd.WaitDelay = 2 * time.Second

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stderr: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", binary, err)
	}
	go logFFmpegOutput(stderr, streamURL)

	readErr := readJPEGFrames(ctx, stdout, callback)
	waitErr := cmd.Wait()
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case readErr != nil:
		return fmt.Errorf("read frames: %w", readErr)
	default:
		return waitErr
	}
}

// Stop ends a running extraction. The process is killed through its context.
func (f *FFmpegExtractor) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
	}
}

// ffmpegArgs builds the command line for a feed. Network inputs get socket
// timeouts and reconnects; local files are read at their native rate so a
// recorded clip behaves like a live camera.
func ffmpegArgs(streamURL string, fps, width int) []string {
	args := []string{"-hide_banner", "-loglevel", "warning"}

	scheme := ""
	if u, err := url.Parse(streamURL); err == nil {
		scheme = u.Scheme
	}
	switch scheme {
	case "rtsp", "rtsps":
		args = append(args, "-rtsp_transport", "tcp", "-timeout", "5000000")
	case "http", "https":
		args = append(args,
			"-reconnect", "1",
			"-reconnect_streamed", "1",
			"-reconnect_delay_max", "5",
			"-rw_timeout", "10000000",
		)
	case "", "file":
		args = append(args, "-re")
	}

	return append(args,
		"-i", streamURL,
		"-an",
		"-vf", "fps="+strconv.Itoa(fps)+",scale="+strconv.Itoa(width)+":-1",
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-q:v", jpegQuality,
		"pipe:1",
	)
}

func logFFmpegOutput(r io.Reader, streamURL string) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		slog.Debug("ffmpeg", "url", streamURL, "line", sc.Text())
	}
}

// readJPEGFrames splits a stream of back-to-back JPEG images. A feed that ends
// after at least one frame, even mid-frame, is a normal end.
func readJPEGFrames(ctx context.Context, r io.Reader, callback FrameCallback) error {
	sp := &jpegSplitter{r: bufio.NewReaderSize(r, readerBytes)}
	frames := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := sp.next()
		if errors.Is(err, io.EOF) {
			if frames == 0 {
				return errNoFrames
			}
			return nil
		}
		if err != nil {
			return err
		}
		frames++
		if err := callback(frame); err != nil {
			slog.Warn("frame callback failed", "frame", frames, "error", err)
		}
	}
}

// jpegSplitter cuts frames on the SOI (FF D8) and EOI (FF D9) markers.
type jpegSplitter struct {
	r   *bufio.Reader
	buf bytes.Buffer
}

func (s *jpegSplitter) next() ([]byte, error) {
	if err := s.skipToMarker(0xD8); err != nil {
		return nil, err
	}
	s.buf.Reset()
	s.buf.Write([]byte{0xFF, 0xD8})

	var prev byte
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return nil, err
		}
		s.buf.WriteByte(b)
		if prev == 0xFF && b == 0xD9 {
			return bytes.Clone(s.buf.Bytes()), nil
		}
		if s.buf.Len() > maxFrameBytes {
			return nil, fmt.Errorf("jpeg frame exceeds %d bytes", maxFrameBytes)
		}
		prev = b
	}
}

func (s *jpegSplitter) skipToMarker(marker byte) error {
	var prev byte
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			return err
		}
		if prev == 0xFF && b == marker {
			return nil
		}
		prev = b
	}
}
