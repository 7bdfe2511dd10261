// Package helpers provides test utility functions for the CRM API.
//
// # JWT Helpers
//
// Issue bearer tokens signed by an in-memory key:
//
//	jwtHelper := helpers.NewJWTHelper(t)
//	token := jwtHelper.GenerateToken(user)
//
// # Request Helpers
//
//	req := helpers.NewRequest(t, http.MethodPost, "/customers").
//	    WithAuth(jwtHelper, user).
//	    WithIdempotencyKey("k1").
//	    WithBody(input).
//	    Build()
//
// # Assertion Helpers
//
//	helpers.AssertStatus(t, rr, http.StatusCreated)
//	helpers.AssertErrorEnvelope(t, rr, http.StatusForbidden, "forbidden")
package helpers
