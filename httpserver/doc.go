// Package httpserver exposes the token ledger and access registry over HTTP.
//
// The caller identity for mutating operations comes from the
// X-Artledger-Caller header as a hex principal. The server is expected to run
// behind a gateway that authenticates callers and sets the header; the
// service itself performs no signature verification.
//
// Mutations take JSON bodies and return JSON; ledger errors map onto HTTP
// status codes (403 unauthorized, 404 unknown token, 409 duplicate grants
// and affiliations, 422 rejected safe-transfer acknowledgements, 400 for the
// rest of the validation failures).
//
// Besides the API the server exposes livez/readyz probes, drain/undrain for
// load-balancer rotation, optional pprof under /debug, and a Prometheus
// metrics server on its own listen address.
package httpserver
