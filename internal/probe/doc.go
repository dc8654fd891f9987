// Package probe queries ffprobe for media duration and stream metadata.
//
// [Client.Duration] is the cheap call the batch scheduler makes before each
// conversion to turn ffmpeg's elapsed-time output into a percentage.
// [Client.Metadata] runs a single JSON call and returns a typed [Result]
// used for display. Both report failures as [*Error], which matches
// [ErrProbe].
package probe
