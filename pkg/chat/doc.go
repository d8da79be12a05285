// Package chat serves the support chat endpoint.
//
// Every message, whether it arrives as a POST /chat body or as a WebSocket
// frame, goes through the same pipeline:
//
//  1. empty check: a whitespace-only message is rejected before anything
//     is counted
//  2. limiter: the source is counted and rejected above its window limit
//  3. screening: messages that look like they carry patient-identifiable
//     data are rejected; they still count against the limiter
//  4. relay: the message is sent upstream and the reply returned
//
// Errors from any step are mapped to an HTTP status and a flat JSON
// envelope by StatusFor and ErrorBody.
package chat
