// Package planner turns conversion settings into what ffmpeg needs: the
// immutable per-file [Job] and the video filter chain that maps D-Log
// footage to Rec.709.
//
// Filter selection, highest priority first:
//   - custom 3D LUT: lut3d with the path escaped for the filtergraph parser
//   - simple method: Rec.709 tagging only
//   - advanced method (default): zscale round trip through linear light
//
// Every chain is followed by [DownstreamChain] so the encoder always sees
// 8-bit 4:2:0 frames at source resolution.
package planner
