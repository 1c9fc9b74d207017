// Package httpapi exposes the delivery service over HTTP.
//
// Two endpoints:
//
//   - POST /send accepts {to, subject?, text?, html?, template_key?,
//     variables?} and runs a full delivery: suppression-list check, rate
//     limit, template resolution, then the orchestrated SMTP conversation.
//     The response carries the delivery id, negotiated TLS mode,
//     authentication mechanism, attempt count and the decisive reply code.
//   - GET /health reports registered dependency probes; with ?verify=smtp
//     it additionally connects to the relay and authenticates without
//     sending anything.
//
// Delivery failures come back classified: the JSON error body includes the
// failure category and a remediation suggestion. Transient categories map
// to 504, permanent ones to 502.
package httpapi
