// Package blobstore implements the blob connector layer: a small,
// backend-agnostic set of file-like primitives (exists, size, read-range,
// append, truncate, delete, move, list-children, create-dir, create-file)
// that everything above it — the data file manager and the type dictionary
// — builds on instead of touching os.* or an SDK client directly.
//
// Two Connector implementations ship:
//
//	LocalFS    the default, backed by a root directory on the local disk.
//	AzureBlob  a remote object-store connector backed by
//	           github.com/Azure/azure-sdk-for-go/sdk/storage/azblob.
//
// A logical path is always '/'-separated, with the first segment naming
// the container: a root-relative directory for LocalFS, a blob container
// for AzureBlob. Everything above this package is written against
// Connector and never assumes which backend is in play.
//
// # Error taxonomy
//
// Every Connector method returns a *Error carrying an ErrorKind
// (not-found, access-denied, io, integrity), the operation name, and the
// path involved. IsKind lets callers branch on the kind without caring
// which backend produced it.
//
// # Integration points
//
//   - pkg/datafile opens one LocalFS or AzureBlob connector per
//     configured storage root and issues Append/ReadRange/Truncate calls
//     against it for the data file and transaction log.
//   - pkg/typedict persists the type dictionary through the same
//     connector, using CreateFile/Append for the dictionary file.
//   - LocalFS additionally satisfies pkg/health's DiskUsage interface via
//     AvailableBytes, so a DiskSpaceCheck can be assembled without
//     pkg/health importing this package.
package blobstore
