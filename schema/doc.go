// Package schema defines the request and response envelopes of every
// operation exported by the transaction library.
//
// Each operation takes one JSON request object and returns either the
// matching response object or an error object of the form
// {"error": Tag, "value": payload}. Requests that carry a header or a
// transaction version implement Validator so callers can reject them before
// crossing into the library.
package schema
