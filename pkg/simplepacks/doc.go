// Package simplepacks registers sound packs: it uploads the six binary assets
// of a pack (three images, three sounds) to an S3-compatible bucket and then
// persists the pack row and its sound rows in a relational database.
//
// The Service interface exposes a single use case, CreatePack. Blob storage
// and persistence are pluggable through the Uploader and Repository
// interfaces; implementations live under subpackages (storage/s3,
// storage/minio, storage/memory, repo/postgres, repo/memory).
//
// Consistency Model
//
// The two stores are not coordinated transactionally. Uploads always happen
// before any database write, so a failed upload never leaves a pack row
// behind. Objects already stored by a failed bulk upload are not deleted, and
// a failure while inserting sound rows leaves the committed pack row in place.
// Both gaps are accepted; callers retry the whole submission, and because
// object keys are derived from the pack name, a retry overwrites the same
// objects instead of duplicating them.
package simplepacks
