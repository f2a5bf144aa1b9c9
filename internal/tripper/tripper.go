// Package tripper composes http.RoundTripper middleware for the outbound
// HTTP clients.
package tripper

import "net/http"

// RoundTripperFunc adapts a function to the http.RoundTripper interface.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

// RoundTrip calls f(req).
func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// Constructor wraps a RoundTripper with additional behavior.
type Constructor func(http.RoundTripper) http.RoundTripper

// Chain is an ordered list of Constructors. The first Constructor sees the
// request first and the response last.
//
// A Chain is never modified in place: Append returns a copy.
type Chain []Constructor

// NewChain creates a Chain from the given constructors.
func NewChain(constructors ...Constructor) Chain {
	return append(Chain(nil), constructors...)
}

// Append returns a new Chain with constructors added after the existing ones.
func (c Chain) Append(constructors ...Constructor) Chain {
	out := make(Chain, 0, len(c)+len(constructors))
	out = append(out, c...)
	return append(out, constructors...)
}

// Then wraps base with every constructor in the chain, so that
// NewChain(a, b).Then(t) is a(b(t)). A nil base means http.DefaultTransport.
func (c Chain) Then(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(c) - 1; i >= 0; i-- {
		base = c[i](base)
	}
	return base
}
