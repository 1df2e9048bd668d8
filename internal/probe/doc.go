// Package probe lists the stream codecs of a media file with ffprobe.
//
// One ffprobe call per file prints a "codec_name,codec_type" line per
// stream. Only the video, audio and subtitle types are kept, and when a
// file has several streams of one type the last one listed wins.
package probe
