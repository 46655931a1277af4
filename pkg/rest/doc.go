// Package rest is the generic JSON transport the block-storage resource
// managers compose over. It maps a typed call (create, get, list, delete)
// onto an HTTP verb + path, extracts the response key from the decoded body
// and turns non-2xx statuses into errors checkable with errors.Is.
//
// Resources are kept as an explicit attribute map; typed views are decoded
// on demand with Resource.Decode.
package rest
