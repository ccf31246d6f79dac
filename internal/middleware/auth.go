package middleware

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/shopmate/backend/internal/token"
)

var (
	tokenManager *token.Manager
	redisClient  *redis.Client
)

// InitAuthMiddleware wires the verifier and the blacklist store. The redis
// client may be nil; logout blacklisting is then skipped.
func InitAuthMiddleware(tokens *token.Manager, client *redis.Client) {
	tokenManager = tokens
	redisClient = client
}

// AuthMiddleware requires a valid, non-blacklisted session token and puts
// the account id into the request context under "userID".
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}
		tokenString := parts[1]

		if redisClient != nil {
			key := fmt.Sprintf("blacklist:%s", tokenString)
			exists, err := redisClient.Exists(r.Context(), key).Result()
			if err != nil {
				log.Printf("[AUTH] Blacklist check failed: %v", err)
			} else if exists > 0 {
				http.Error(w, "Token has been revoked", http.StatusUnauthorized)
				return
			}
		}

		userID, err := tokenManager.VerifySession(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
