package planner

import (
	"fmt"

	"github.com/backmassage/hevcsweep/internal/probe"
)

// AudioAction is the audio handling decision for a file.
type AudioAction int

const (
	AudioCopy      AudioAction = iota // -c:a copy
	AudioEncodeAAC                    // -c:a aac
)

func (a AudioAction) String() string {
	if a == AudioCopy {
		return "copy"
	}
	return "aac"
}

// SubtitleAction is the subtitle handling decision for a file.
type SubtitleAction int

const (
	SubtitleDrop SubtitleAction = iota // -sn
	SubtitleCopy                       // -c:s copy
)

func (s SubtitleAction) String() string {
	if s == SubtitleCopy {
		return "copy"
	}
	return "drop"
}

// Plan holds the stream decisions for one file along with the codecs they
// were derived from. The ffmpeg package turns it into arguments.
type Plan struct {
	Codecs    probe.Codecs
	Audio     AudioAction
	Subtitles SubtitleAction
}

// Describe returns a one-line summary for logs, e.g.
// "audio: mp3 -> aac, subtitles: drop".
func (p Plan) Describe() string {
	audio := "copy " + p.Codecs.AudioLabel()
	if p.Audio == AudioEncodeAAC {
		audio = p.Codecs.AudioLabel() + " -> aac"
	}
	subs := "drop"
	if p.Subtitles == SubtitleCopy {
		subs = "copy " + p.Codecs.SubtitleLabel()
	}
	return fmt.Sprintf("audio: %s, subtitles: %s", audio, subs)
}
