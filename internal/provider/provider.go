// Package provider wraps the external text-analysis services behind a common
// adapter interface and fans requests out to all of them concurrently.
package provider

import "context"

// Analyzer is a stateless wrapper around one external text-analysis service.
type Analyzer interface {
	// Name identifies the provider in results and logs.
	Name() string
	// Analyze submits text and returns the provider's first textual reply.
	Analyze(ctx context.Context, text string) (string, error)
}

// Result is one provider's contribution to an aggregated response. A failed
// call keeps its reason in Err so callers can tell "provider returned
// nothing" apart from "provider call failed"; on the wire both serialize to a
// null response.
type Result struct {
	Provider string  `json:"provider"`
	Response *string `json:"response"`
	Err      error   `json:"-"`
}
