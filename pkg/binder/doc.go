// Package binder decodes HTTP request bodies into typed request structs.
//
// The notification API accepts only JSON payloads; JSON returns a binder
// function that enforces the content type, a 1MB body cap, strict field
// checking, and single-document bodies. Handlers call the binder and map
// its sentinel errors to 400/415 responses.
package binder
