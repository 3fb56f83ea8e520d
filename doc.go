// Package tableconfig implements a durable, crash-consistent key/value
// configuration store for a managed table. A TableConfig is persisted as a
// small property file (hoodie.properties) on a filesystem or object store
// that offers only rename and create-overwrite as primitives; a transient
// backup file (hoodie.properties.backup) acts as a write-ahead image so that
// create, update, and delete-keys operations survive a crash at any point.
//
// Concrete filesystem backends live in the fs subpackage (local disk and,
// via fs/s3backend, an S3-compatible object store). An optional Redis-backed
// L2 cache (see the cache subpackage) may be layered in front of Load to
// avoid re-reading the filesystem on every call; its presence or absence
// never changes the correctness of the store, only its read latency.
package tableconfig
