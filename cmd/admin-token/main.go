package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kushch-a/car-service-crm/internal/model"
	"github.com/kushch-a/car-service-crm/pkg/jwt"
)

func main() {
	// Flags for customization
	privateKeyPath := flag.String("key", "./keys/private.pem", "Path to JWT private key")
	username := flag.String("username", "admin", "Username the token is issued for (must exist)")
	userID := flag.Int64("user-id", 1, "User ID for the token")
	role := flag.String("role", string(model.UserRoleAdmin), "Role claim: admin, manager or master")
	issuer := flag.String("issuer", "car-service-crm", "JWT issuer")
	expMins := flag.Int("exp", 60*24, "Token expiration in minutes (default: 1 day)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if !model.UserRole(*role).Valid() {
		fmt.Fprintf(os.Stderr, "Invalid role %q: use admin, manager or master\n", *role)
		os.Exit(2)
	}

	// Create JWT service with just the private key
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: *privateKeyPath,
		Issuer:         *issuer,
		ExpirationMins: *expMins,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nStart the server once in development to generate keys.\n")
		os.Exit(1)
	}

	token, err := jwtService.Sign(jwt.Claims{
		Subject: *username,
		UserID:  *userID,
		Role:    *role,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		output := map[string]any{
			"access_token": token,
			"token_type":   "bearer",
			"expires_in":   *expMins * 60,
			"username":     *username,
			"role":         *role,
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(output)
		return
	}

	expTime := time.Now().Add(time.Duration(*expMins) * time.Minute)
	fmt.Println("Token Generated")
	fmt.Println("===============")
	fmt.Printf("Username: %s\n", *username)
	fmt.Printf("Role:     %s (informational; the server reads the account's role)\n", *role)
	fmt.Printf("Expires:  %s\n", expTime.Format(time.RFC3339))
	fmt.Println()
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  curl -H 'Authorization: Bearer %s' http://localhost:8000/users/me\n", token[:min(len(token), 50)]+"...")
}
