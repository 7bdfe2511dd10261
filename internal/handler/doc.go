// Package handler provides the HTTP handlers of the CRM API.
//
// Handlers have the shape of Func: they write a success response and
// return nil, or return an error and write nothing. Func.ServeHTTP passes
// the error through MapServiceError and renders the single error envelope
//
//	{"error": "<code>", "details": "<message>", "request_id": "<id or null>"}
//
// Declared errors (model.APIError and the service sentinels) keep their
// status. Anything else is logged server-side and reported as a generic
// internal error.
//
// Handlers read the authenticated caller with middleware.GetCaller; role
// checks happen in the router before a handler runs.
package handler
