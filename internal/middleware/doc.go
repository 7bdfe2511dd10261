// Package middleware implements the request governance layer of the CRM API.
//
// Every request passes through the same outer chain:
//
//	RequestID -> Logger -> Recovery -> CORS -> RateLimit -> mux
//
// Protected routes add AuthGate.Require and, when they create or modify
// data, Idempotency:
//
//	middleware.Chain(h, gate.Require(model.UserRoleAdmin), middleware.Idempotency(guard, middleware.IdempotencyRequired))
//
// # Rate Limiting
//
// RateLimiter counts requests per client address in fixed windows (30
// requests per 2 seconds by default). The window boundary is half-open:
// a request exactly one window after the first one starts a new window.
// Rejections carry Retry-After in whole seconds.
//
// # Idempotency
//
// IdempotencyGuard stores the first outcome for a key and replays it
// verbatim, including client errors. Keys are scoped to the caller, the
// method and the path. Outcomes expire after the configured TTL and the
// store is capped; both bounds go beyond plain process-lifetime storage.
//
// # Context Values
//
//   - GetRequestID(ctx): correlation id, also echoed as X-Request-Id
//   - GetCaller(ctx): authenticated caller on protected routes
package middleware
