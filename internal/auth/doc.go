// Package auth implements the authentication core: bcrypt password hashing,
// signed bearer tokens, the gin authentication gate, ownership checks on
// password changes, and the login rate limiter.
//
// # Configuration
//
//	AUTH_SECRET_KEY=<random string>        # Generated per process if empty (tokens die on restart)
//	AUTH_TOKEN_ALGORITHM=HS256             # HS256, HS384 or HS512
//	ACCESS_TOKEN_EXPIRE_MINUTES=30         # Access token lifetime
//	AUTH_BCRYPT_COST=12                    # bcrypt cost factor
//	RATE_LIMIT=10/minute                   # login-with-token requests per client IP
//
// # Usage
//
//	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
//	tokens, err := auth.NewTokenService(cfg.Auth)
//	svc := auth.NewService(users.NewRepository(db), hasher, tokens)
//	gate := auth.NewMiddleware(svc)
//	router.GET("/me", gate.Handler(), handler)
//
// Extract the user in handlers:
//
//	user, ok := auth.CurrentUser(c)
package auth
