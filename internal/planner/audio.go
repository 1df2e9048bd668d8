package planner

// passthroughAudio lists codecs that go into the output untouched. Names
// are compared exactly as ffprobe prints them.
var passthroughAudio = map[string]bool{
	"aac":  true,
	"ac3":  true,
	"eac3": true,
}

// PlanAudio copies AAC, AC-3 and E-AC-3 audio and re-encodes everything
// else, including an unknown (empty) codec, to AAC.
func PlanAudio(codec string) AudioAction {
	if passthroughAudio[codec] {
		return AudioCopy
	}
	return AudioEncodeAAC
}
