// Package naming derives output file names for converted clips and keeps
// two inputs in one batch from writing the same output.
//
//	/footage/DJI_0001.MP4  ->  <outputDir>/DJI_0001_rec709.mp4
package naming
