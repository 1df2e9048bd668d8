// Package naming rewrites source filenames into their converted form and
// detects names that are already HEVC.
//
// A name is converted by replacing video codec tokens (h264, x264, H.264,
// xvid, divx) with "HEVC" and audio codec tokens (mp3, dts, wma, flac) with
// "AAC", then swapping the extension for the output container. Matching is
// case-insensitive and applies anywhere in the name, so "Movie.X264.mkv"
// becomes "Movie.HEVC.mkv". Normalize is idempotent.
//
// Files whose names contain x265, hevc or h265 in any case are already in
// the target format; callers skip them before calling Normalize.
package naming
