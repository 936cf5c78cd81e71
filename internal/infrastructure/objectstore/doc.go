// Package objectstore stores device images outside the document store.
//
// A Gateway accepts a Blob and returns a locator (a URL) that is saved in the
// device document. Deleting by locator recovers the object key from the last
// path segment of the URL.
//
// Two backends are provided:
//   - S3Gateway: Amazon S3 (or any S3-compatible endpoint) via aws-sdk-go
//   - BadgerGateway: an embedded Badger key-value store for single-node and
//     development deployments, readable back through Get
//
// WithTimeout bounds every call made through a Gateway. Nothing in this
// package retries.
package objectstore
