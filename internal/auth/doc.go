// Package auth provides bearer-token authentication for the chat API.
//
// # Authentication
//
// Clients authenticate with HS256 JWT bearer tokens signed with the
// configured jwt_secret. The "sub" claim carries the user id, which the
// rest of the system treats as an opaque stable identifier; account
// creation and token issuance belong to an external login subsystem.
//
// # Middleware
//
// Middleware(verifier) wraps HTTP handlers, rejecting requests without a
// valid token with 401 before any handler runs. Handlers read the
// authenticated identity with UserFromContext. A rejected request has zero
// side effects: neither storage nor the completion provider is touched.
//
// # Token Generation
//
// JWTVerifier.Generate mints tokens for the admin CLI and for tests.
package auth
