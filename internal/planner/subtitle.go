package planner

// PlanSubtitles copies subtitle streams when any were detected and drops
// them otherwise.
func PlanSubtitles(codec string) SubtitleAction {
	if codec == "" {
		return SubtitleDrop
	}
	return SubtitleCopy
}
