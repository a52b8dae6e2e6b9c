// Command token mints a bearer token for calling the API locally.
//
//	go run ./cmd/token -user alice -role admin -ttl 24h
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/01moynul/zemmon-store/internal/auth"
)

func main() {
	user := flag.String("user", "", "user id (random when empty)")
	role := flag.String("role", auth.RoleUser, "role: user or admin")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET environment variable is not set")
	}
	if *role != auth.RoleUser && *role != auth.RoleAdmin {
		log.Fatalf("unknown role %q", *role)
	}
	if *user == "" {
		*user = uuid.NewString()
	}

	token, err := auth.NewTokenManager(secret).GenerateToken(auth.Principal{ID: *user, Role: *role}, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
}
