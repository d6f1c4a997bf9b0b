// Package pso implements the pipeline-key/cache layer: a canonical
// fingerprint for pipeline-state-object variants and a process-wide
// cache that compiles each distinct fingerprint at most once.
//
// The fingerprint (Fingerprint) is a pure function of the recognized
// options on a PipelineDescriptor: equivalent descriptors, however they
// were constructed, always produce equal fingerprints. The cache (Cache)
// runs compiles on a bounded worker pool; concurrent requests for the
// same fingerprint share one in-flight compile rather than racing.
package pso
