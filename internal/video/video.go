// Package video writes composited frames: a numbered PNG sequence or a
// raw RGBA stream piped into ffmpeg.
package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"os/exec"
	"path/filepath"

	"github.com/spf13/afero"
)

// Sink consumes frames in index order.
type Sink interface {
	WriteFrame(index int, img image.Image) error
	Close() error
}

// PNGSink writes frame_00000.png, frame_00001.png, ... into Dir.
type PNGSink struct {
	Fs  afero.Fs
	Dir string

	written int
}

func NewPNGSink(fs afero.Fs, dir string) (*PNGSink, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	return &PNGSink{Fs: fs, Dir: dir}, nil
}

func FramePath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("frame_%05d.png", index))
}

func (s *PNGSink) WriteFrame(index int, img image.Image) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode frame %d: %w", index, err)
	}
	if err := afero.WriteFile(s.Fs, FramePath(s.Dir, index), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write frame %d: %w", index, err)
	}
	s.written++
	return nil
}

// Written returns the number of frames written so far.
func (s *PNGSink) Written() int { return s.written }

func (s *PNGSink) Close() error { return nil }

// EncoderParams describe the ffmpeg output.
type EncoderParams struct {
	Width, Height int
	FPS           int
	Encoder       string
	Quality       int
	Output        string
	Audio         []AudioTrack
	// Duration bounds the output when audio tracks are longer than the video.
	Duration float64
}

// FFmpegSink pipes raw RGBA frames into an ffmpeg process.
type FFmpegSink struct {
	params EncoderParams
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	log    bytes.Buffer
	frame  *image.RGBA
}

func NewFFmpegSink(ctx context.Context, params EncoderParams) (*FFmpegSink, error) {
	s := &FFmpegSink{
		params: params,
		frame:  image.NewRGBA(image.Rect(0, 0, params.Width, params.Height)),
	}
	s.cmd = exec.CommandContext(ctx, "ffmpeg", BuildArgs(params)...)
	s.cmd.Stdout = &s.log
	s.cmd.Stderr = &s.log

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe error: %w", err)
	}
	s.stdin = stdin
	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg start error: %w", err)
	}
	return s, nil
}

// BuildArgs returns the ffmpeg command line for params.
func BuildArgs(p EncoderParams) []string {
	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.Width, p.Height),
		"-framerate", fmt.Sprintf("%d", p.FPS),
		"-i", "-",
	}
	for _, t := range p.Audio {
		args = append(args, "-i", t.Path)
	}
	if graph, out := AudioFilter(p.Audio, 1); graph != "" {
		args = append(args, "-filter_complex", graph, "-map", "0:v", "-map", out)
	}
	if p.Duration > 0 {
		args = append(args, "-t", fmt.Sprintf("%f", p.Duration))
	}
	args = append(args, "-pix_fmt", "yuv420p", "-c:v", p.Encoder)

	// Качество в зависимости от энкодера
	switch p.Encoder {
	case "h264_videotoolbox":
		bitrate := p.Quality * 100
		args = append(args, "-b:v", fmt.Sprintf("%dk", bitrate))
	case "h264_nvenc":
		args = append(args, "-cq", fmt.Sprintf("%d", p.Quality))
	default: // libx264
		args = append(args, "-crf", fmt.Sprintf("%d", p.Quality), "-preset", "medium")
	}
	if len(p.Audio) > 0 {
		args = append(args, "-c:a", "aac")
	}
	return append(args, p.Output)
}

func (s *FFmpegSink) WriteFrame(index int, img image.Image) error {
	if err := writeRawRGBA(s.stdin, img, s.frame); err != nil {
		return fmt.Errorf("write raw error (frame %d): %w", index, err)
	}
	return nil
}

func (s *FFmpegSink) Close() error {
	s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg wait error: %w\nLog: %s", err, s.log.String())
	}
	return nil
}

// writeRawRGBA writes img as tightly packed RGBA, converting through
// scratch when img has another layout.
func writeRawRGBA(w io.Writer, img image.Image, scratch *image.RGBA) error {
	bounds := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != bounds.Dx()*4 || rgba.Rect.Min.X != 0 || rgba.Rect.Min.Y != 0 {
		if scratch == nil || scratch.Rect.Size() != bounds.Size() {
			scratch = image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		}
		draw.Draw(scratch, scratch.Bounds(), img, bounds.Min, draw.Src)
		rgba = scratch
	}
	_, err := w.Write(rgba.Pix)
	return err
}
