// Package pipeline is the batch service behind every front end: it turns a
// [Request] (input paths, output directory, conversion options) into jobs,
// runs them through the batch scheduler, and folds the results into a
// [Response] with a summary.
//
// The service holds an advisory lock on the output directory for the
// lifetime of a batch so two batches never write the same files.
package pipeline
