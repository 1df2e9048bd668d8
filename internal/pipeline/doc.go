// Package pipeline drives a conversion batch: it discovers candidate files,
// runs each through skip checks, probing, planning and ffmpeg, and stops
// on the count limit (checked before a file starts) or the cumulative
// size limit (checked after a file finishes).
//
// Files are processed strictly one at a time.
package pipeline
