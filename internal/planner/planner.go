package planner

import "github.com/backmassage/hevcsweep/internal/probe"

// Build produces the Plan for a file from its probed codecs.
func Build(c probe.Codecs) Plan {
	return Plan{
		Codecs:    c,
		Audio:     PlanAudio(c.Audio),
		Subtitles: PlanSubtitles(c.Subtitle),
	}
}
