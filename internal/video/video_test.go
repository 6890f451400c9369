package video

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestPNGSink(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink, err := NewPNGSink(fs, "/out")
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	for i := 0; i < 3; i++ {
		if err := sink.WriteFrame(i, img); err != nil {
			t.Fatalf("WriteFrame(%d): %v", i, err)
		}
	}
	if err := sink.Close(); err != nil {
		t.Fatal(err)
	}
	if sink.Written() != 3 {
		t.Errorf("Written = %d", sink.Written())
	}
	data, err := afero.ReadFile(fs, FramePath("/out", 2))
	if err != nil {
		t.Fatalf("frame 2 missing: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, _ := decoded.At(1, 1).RGBA(); r>>8 != 255 {
		t.Errorf("pixel lost: r=%d", r>>8)
	}
}

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name    string
		params  EncoderParams
		want    []string
		wantNot []string
	}{
		{
			name:    "x264 without audio",
			params:  EncoderParams{Width: 1280, Height: 720, FPS: 30, Encoder: "libx264", Quality: 23, Output: "out.mp4"},
			want:    []string{"-video_size 1280x720", "-framerate 30", "-crf 23", "-c:v libx264"},
			wantNot: []string{"-filter_complex", "-c:a"},
		},
		{
			name:   "nvenc",
			params: EncoderParams{Width: 640, Height: 360, FPS: 25, Encoder: "h264_nvenc", Quality: 19, Output: "o.mp4"},
			want:   []string{"-cq 19"},
		},
		{
			name: "with audio",
			params: EncoderParams{Width: 640, Height: 360, FPS: 25, Encoder: "libx264", Quality: 23, Output: "o.mp4", Duration: 10,
				Audio: []AudioTrack{{Path: "music.mp3", Start: 2, Duration: 5, Volume: 0.8}}},
			want: []string{"-i music.mp3", "-filter_complex", "-map 0:v -map [a0]", "-c:a aac", "-t 10.000000"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := strings.Join(BuildArgs(tt.params), " ")
			for _, w := range tt.want {
				if !strings.Contains(args, w) {
					t.Errorf("args missing %q: %s", w, args)
				}
			}
			for _, w := range tt.wantNot {
				if strings.Contains(args, w) {
					t.Errorf("args contain %q: %s", w, args)
				}
			}
			if !strings.HasSuffix(args, tt.params.Output) {
				t.Errorf("output not last: %s", args)
			}
		})
	}
}

func TestAudioFilter(t *testing.T) {
	if g, out := AudioFilter(nil, 1); g != "" || out != "" {
		t.Errorf("empty tracks produced %q %q", g, out)
	}
	g, out := AudioFilter([]AudioTrack{
		{Path: "a.mp3", Start: 1.5, Duration: 4},
		{Path: "b.mp3", Start: 0, Duration: 2, Volume: 0.5},
	}, 1)
	if out != "[aout]" {
		t.Errorf("out = %q", out)
	}
	for _, w := range []string{"[1:a]atrim=0:4.000000", "adelay=1500:all=1[a0]", "[2:a]", "volume=0.500", "[a0][a1]amix=inputs=2"} {
		if !strings.Contains(g, w) {
			t.Errorf("graph missing %q: %s", w, g)
		}
	}
}

func TestWriteRawRGBAConverts(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	var buf bytes.Buffer
	if err := writeRawRGBA(&buf, src, nil); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 8 || buf.Bytes()[0] != 10 || buf.Bytes()[2] != 30 {
		t.Errorf("raw = %v", buf.Bytes())
	}
}
