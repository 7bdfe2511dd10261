// Package jwt signs and validates RS256 access tokens for the CRM API.
//
// # Signing
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "keys/private.pem",
//	    PublicKeyPath:  "keys/public.pem",
//	    Issuer:         "car-service-crm",
//	    ExpirationMins: 30,
//	})
//
//	token, err := svc.Sign(jwt.Claims{Subject: user.Username, UserID: user.ID, Role: string(user.Role)})
//
// # Validation
//
// Validate rejects tokens with any algorithm other than RS256, a bad
// signature, an unexpected issuer, a missing subject or an expired
// lifetime:
//
//	claims, err := svc.Validate(tokenString)
//
// The role claim is informational. Authorization always reads the role
// from the user account named by the subject.
//
// Keys can be created with GenerateKeyPair. Tests use NewTestService with
// an in-memory key.
package jwt
