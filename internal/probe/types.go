package probe

// Codecs holds the codec name detected for each stream type. An empty
// field means no stream of that type was listed.
type Codecs struct {
	Video    string
	Audio    string
	Subtitle string
}

// VideoLabel returns the video codec or "Unknown".
func (c Codecs) VideoLabel() string { return labelOr(c.Video, "Unknown") }

// AudioLabel returns the audio codec or "Unknown".
func (c Codecs) AudioLabel() string { return labelOr(c.Audio, "Unknown") }

// SubtitleLabel returns the subtitle codec or "None".
func (c Codecs) SubtitleLabel() string { return labelOr(c.Subtitle, "None") }

// HasSubtitles reports whether a subtitle stream was detected.
func (c Codecs) HasSubtitles() bool { return c.Subtitle != "" }

func labelOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
