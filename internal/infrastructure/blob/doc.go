// Package blob stores uploaded attachments on the local filesystem.
//
// Each saved file gets a fresh random name that keeps the original extension.
// Save returns the public URL path under which the API serves the file,
// and Remove accepts that same URL path.
package blob
