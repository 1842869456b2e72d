// Package http provides the rate-limit aware client used to call the gateway.
//
// A Client issues one logical request per call and absorbs HTTP 429 responses:
// the wait is read from the JSON error body (`{"retry_after": <seconds>}`, with the
// Retry-After header as a fallback), the call pauses for exactly that long and then
// re-sends the identical request. Every attempt of one call carries the same URI,
// method, body and Authorization value; only the wait before it changes, and the
// wait always comes from the most recent 429.
//
// Retries
//   - Only 429 is retried. There is no attempt ceiling unless one is configured
//     with Builder.WithMaxRateLimitRetries.
//   - Any other non-2xx status, transport failure or decoding failure ends the call.
//   - A cancelled context interrupts a pending wait or an in-flight attempt.
//
// Results
//   - Do returns the raw Response or a typed ClientError (see IsErrorType).
//   - Execute, ExecuteInto and Check collapse every failure to nil/false and log
//     the underlying error, for callers that only care whether the call worked.
//
// Headers
//   - Authorization carries Request.Token verbatim (no "Bearer " prefix) and is
//     omitted when the token is empty.
//   - Content-Type: application/json is set only when a body is sent.
//   - Nothing else is added unless an interceptor is registered.
package http
