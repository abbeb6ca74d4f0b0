// Package models contains the domain types shared across the CLI, the Xbox
// service clients, the snapshot engine, and the renderers.
//
// Two families of types live here:
//
//   - Wire/document types (Profile, Title, Achievement, SnapshotDocument,
//     TokenArtifact) that are serialized to JSON files. Their field tags are a
//     stable contract: snapshot files written by one version must remain
//     readable by the renderers of another.
//
//   - Persistence types (SnapshotRecord) implementing the Model interface,
//     stored in sqlite by internal/repositories.
package models
