package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrMalformedLine is returned when an output line is not exactly
	// "codec_name,codec_type".
	ErrMalformedLine = errors.New("malformed ffprobe line")
	// ErrNoStreams is returned when ffprobe lists no streams at all.
	ErrNoStreams = errors.New("ffprobe listed no streams")
)

// Prober enumerates the stream codecs of a file.
type Prober interface {
	Probe(ctx context.Context, path string) (Codecs, error)
}

// FFprobe runs the ffprobe binary. A zero Binary means "ffprobe" on PATH.
type FFprobe struct {
	Binary string
}

// Args returns the ffprobe argument list for path.
func Args(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "stream=codec_name,codec_type",
		"-of", "csv=p=0",
		path,
	}
}

// Probe runs ffprobe against path and parses its stream listing. A
// non-zero exit is an error carrying ffprobe's stderr.
func (f FFprobe) Probe(ctx context.Context, path string) (Codecs, error) {
	bin := f.Binary
	if bin == "" {
		bin = "ffprobe"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, Args(path)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return Codecs{}, fmt.Errorf("ffprobe %q: %w: %s", path, err, msg)
		}
		return Codecs{}, fmt.Errorf("ffprobe %q: %w", path, err)
	}

	codecs, err := ParseStreams(stdout.Bytes())
	if err != nil {
		return Codecs{}, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return codecs, nil
}

// ParseStreams converts ffprobe csv output into Codecs. Blank lines are
// ignored; stream types other than video, audio and subtitle are dropped.
func ParseStreams(out []byte) (Codecs, error) {
	var c Codecs
	streams := 0
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 2 {
			return Codecs{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
		}
		streams++

		name, kind := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
		switch kind {
		case "video":
			c.Video = name
		case "audio":
			c.Audio = name
		case "subtitle":
			c.Subtitle = name
		}
	}
	if streams == 0 {
		return Codecs{}, ErrNoStreams
	}
	return c, nil
}
