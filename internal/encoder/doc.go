package encoder

// Package encoder wraps the external ffmpeg/ffprobe executables: presence
// and version checks, MP3 conversion with metadata tags, loudness
// normalization, and stream probing. All invocations run under fixed
// timeouts and partial output files are removed on failure.
