// Package gateway assembles the HTTP boundary of the chat pipeline.
//
// # Endpoints
//
//   - GET  /health            - liveness, no auth
//   - GET  /api/chat/history  - ordered {content, sender} pairs; [] for a new user
//   - POST /api/chat/message  - {"message": "..."} in, {"response": "..."} out
//
// Both chat endpoints sit behind the bearer-token middleware; a request
// that fails authentication is rejected with 401 before the store or the
// completion provider is touched.
//
// # Error Mapping
//
// Pipeline failures map to status codes at this layer and nowhere else:
// empty input 400, version conflict 409, provider failure 502, storage or
// decryption failure 500. Bodies carry a generic {"error": "..."} message;
// detailed causes are logged server-side only.
package gateway
