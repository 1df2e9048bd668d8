// Package ffmpeg builds and runs the HEVC conversion command and retries
// known-recoverable failures.
//
// Every conversion uses the same fixed video profile (by default NVENC
// HEVC Main10 at constant QP 20) with "-n" so an existing output is never
// overwritten. Audio is copied or re-encoded to AAC and subtitles are
// copied or dropped, as decided by the planner.
//
// When ffmpeg fails, its stderr is classified and at most one fix is
// applied per attempt: drop subtitles, then raise the mux queue, then
// regenerate timestamps.
package ffmpeg
