// Package ffmpeg builds the ffmpeg command line for one conversion job and
// runs it, turning the streamed status text into elapsed-time progress.
//
// Failures are typed so callers can tell them apart with errors.Is/As:
//   - [ValidationError] ([ErrValidation]): the job was rejected before spawn
//   - [LaunchError] ([ErrLaunch]): the executable could not be started
//   - [ProcessError] ([ErrProcess]): ffmpeg ran and exited non-zero
//
// [Diagnose] maps common stderr patterns to a one-line hint for logs.
package ffmpeg
