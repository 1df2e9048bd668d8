package naming

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultContainer is the output extension, without the dot.
const DefaultContainer = "mkv"

var (
	reHEVC       = regexp.MustCompile(`(?i)(x265|hevc|h265)`)
	reVideoCodec = regexp.MustCompile(`(?i)(h264|x264|h\.264|xvid|divx)`)
	reAudioCodec = regexp.MustCompile(`(?i)(mp3|dts|wma|flac)`)
)

// IsHEVC reports whether name carries an HEVC token and must be skipped.
func IsHEVC(name string) bool {
	return reHEVC.MatchString(name)
}

// Normalize returns the converted filename for name: codec tokens
// rewritten, extension replaced by ".mkv". Only the final extension is
// dropped. Input is NFC-normalized first so composed and decomposed
// spellings of the same name map to one output.
func Normalize(name string) string {
	return NormalizeWith(name, DefaultContainer)
}

// NormalizeWith is Normalize with an explicit container extension.
func NormalizeWith(name, container string) string {
	name = norm.NFC.String(name)
	name = reVideoCodec.ReplaceAllLiteralString(name, "HEVC")
	name = reAudioCodec.ReplaceAllLiteralString(name, "AAC")
	return stem(name) + "." + strings.TrimPrefix(container, ".")
}

// stem drops the last ".ext" of name. Leading-dot names like ".hidden"
// are treated as having no extension.
func stem(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || ext == name {
		return name
	}
	return strings.TrimSuffix(name, ext)
}

// OutputPath places the normalized base name of input next to it.
func OutputPath(input, container string) string {
	return filepath.Join(filepath.Dir(input), NormalizeWith(filepath.Base(input), container))
}
