// Package api assembles the HTTP surface of the CRM: it builds the
// repositories, services and handlers over one database, registers every
// route with its role requirement and idempotency mode, and wraps the mux
// in the request pipeline (request id, logging, panic recovery, CORS and
// per-client rate limiting).
//
//	router := api.NewRouter(api.Config{
//	    DB:          db,
//	    JWT:         jwtService,
//	    RateLimiter: limiter,
//	    Idempotency: guard,
//	})
//	server := &http.Server{Addr: ":8000", Handler: router}
package api
