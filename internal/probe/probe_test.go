package probe

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseStreams(t *testing.T) {
	cases := []struct {
		name string
		out  string
		want Codecs
	}{
		{
			name: "video audio subtitle",
			out:  "h264,video\nmp3,audio\nsubrip,subtitle\n",
			want: Codecs{Video: "h264", Audio: "mp3", Subtitle: "subrip"},
		},
		{
			name: "no subtitles",
			out:  "mpeg4,video\nac3,audio\n",
			want: Codecs{Video: "mpeg4", Audio: "ac3"},
		},
		{
			name: "last stream per type wins",
			out:  "h264,video\naac,audio\ndts,audio\nass,subtitle\nsubrip,subtitle\n",
			want: Codecs{Video: "h264", Audio: "dts", Subtitle: "subrip"},
		},
		{
			name: "other stream types ignored",
			out:  "h264,video\nttf,attachment\nbin_data,data\n",
			want: Codecs{Video: "h264"},
		},
		{
			name: "crlf and blank lines",
			out:  "\r\nhevc,video\r\n\r\naac,audio\r\n",
			want: Codecs{Video: "hevc", Audio: "aac"},
		},
		{
			name: "audio only",
			out:  "flac,audio\n",
			want: Codecs{Audio: "flac"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseStreams([]byte(tc.out))
			if err != nil {
				t.Fatalf("ParseStreams error: %v", err)
			}
			if got != tc.want {
				t.Errorf("ParseStreams = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestParseStreams_Errors(t *testing.T) {
	cases := []struct {
		name string
		out  string
		want error
	}{
		{"empty", "", ErrNoStreams},
		{"whitespace only", "\n \n", ErrNoStreams},
		{"single field", "h264\n", ErrMalformedLine},
		{"three fields", "h264,video,extra\n", ErrMalformedLine},
		{"bad line after good", "h264,video\ngarbage\n", ErrMalformedLine},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseStreams([]byte(tc.out))
			if !errors.Is(err, tc.want) {
				t.Errorf("ParseStreams error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCodecsLabels(t *testing.T) {
	var empty Codecs
	if empty.VideoLabel() != "Unknown" || empty.AudioLabel() != "Unknown" || empty.SubtitleLabel() != "None" {
		t.Errorf("empty labels = %q/%q/%q", empty.VideoLabel(), empty.AudioLabel(), empty.SubtitleLabel())
	}
	if empty.HasSubtitles() {
		t.Error("HasSubtitles() should be false without a subtitle codec")
	}

	full := Codecs{Video: "h264", Audio: "aac", Subtitle: "ass"}
	if full.VideoLabel() != "h264" || full.AudioLabel() != "aac" || full.SubtitleLabel() != "ass" {
		t.Errorf("labels = %q/%q/%q", full.VideoLabel(), full.AudioLabel(), full.SubtitleLabel())
	}
	if !full.HasSubtitles() {
		t.Error("HasSubtitles() should be true")
	}
}

func TestArgs(t *testing.T) {
	got := strings.Join(Args("in.mkv"), " ")
	want := "-v error -show_entries stream=codec_name,codec_type -of csv=p=0 in.mkv"
	if got != want {
		t.Errorf("Args = %q, want %q", got, want)
	}
}

// writeStub creates an executable shell script standing in for ffprobe.
func writeStub(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFFprobe_Probe(t *testing.T) {
	bin := writeStub(t, `printf 'h264,video\nmp3,audio\n'`)
	got, err := FFprobe{Binary: bin}.Probe(context.Background(), "movie.avi")
	if err != nil {
		t.Fatalf("Probe error: %v", err)
	}
	if got != (Codecs{Video: "h264", Audio: "mp3"}) {
		t.Errorf("Probe = %+v", got)
	}
}

func TestFFprobe_ProbeFailureCarriesStderr(t *testing.T) {
	bin := writeStub(t, `echo "movie.avi: Invalid data found when processing input" >&2; exit 1`)
	_, err := FFprobe{Binary: bin}.Probe(context.Background(), "movie.avi")
	if err == nil {
		t.Fatal("Probe should fail on non-zero exit")
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Errorf("error %q should carry ffprobe stderr", err)
	}
}

func TestFFprobe_ProbeEmptyOutput(t *testing.T) {
	bin := writeStub(t, `exit 0`)
	_, err := FFprobe{Binary: bin}.Probe(context.Background(), "movie.avi")
	if !errors.Is(err, ErrNoStreams) {
		t.Errorf("Probe error = %v, want ErrNoStreams", err)
	}
}
