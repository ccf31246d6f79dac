package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/shopmate/backend/docs"
	"github.com/shopmate/backend/internal/auth"
	"github.com/shopmate/backend/internal/database"
	"github.com/shopmate/backend/internal/mail"
	mW "github.com/shopmate/backend/internal/middleware"
	"github.com/shopmate/backend/internal/services"
	"github.com/shopmate/backend/internal/store"
	"github.com/shopmate/backend/internal/token"
)

// @title ShopMate Backend API
// @version 1.0
// @description E-commerce demo backend with OTP-gated accounts
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Initialize config
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("jwt.reset_expiry_minutes", "JWT_RESET_EXPIRY_MINUTES")

	viper.BindEnv("argon2.time", "ARGON2_TIME")
	viper.BindEnv("argon2.memory", "ARGON2_MEMORY")
	viper.BindEnv("argon2.threads", "ARGON2_THREADS")
	viper.BindEnv("argon2.key_length", "ARGON2_KEY_LENGTH")
	viper.BindEnv("argon2.salt_length", "ARGON2_SALT_LENGTH")

	viper.BindEnv("smtp.host", "SMTP_HOST")
	viper.BindEnv("smtp.port", "SMTP_PORT")
	viper.BindEnv("smtp.username", "SMTP_USERNAME")
	viper.BindEnv("smtp.password", "SMTP_PASSWORD")
	viper.BindEnv("smtp.from_name", "SMTP_FROM_NAME")
	viper.BindEnv("mail.required", "MAIL_REQUIRED")

	viper.BindEnv("app.public_url", "APP_PUBLIC_URL")
	viper.BindEnv("app.seed_catalog", "APP_SEED_CATALOG")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Title = "ShopMate Backend API"
	docs.SwaggerInfo.Description = "E-commerce demo backend with OTP-gated accounts"
	docs.SwaggerInfo.Version = "1.0"
	docs.SwaggerInfo.Host = "localhost:8080"
	docs.SwaggerInfo.BasePath = "/api"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	// Initialize storage
	db := database.InitDatabase()
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if viper.GetBool("app.seed_catalog") {
		if err := database.SeedCatalog(db); err != nil {
			log.Printf("Warning: Failed to seed catalog: %v", err)
		}
	}

	redisClient := database.InitRedis()
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize services
	userStore := store.NewPostgresUserStore(db)
	productStore := store.NewPostgresProductStore(db)
	mailer := mail.NewService()
	tokens := token.NewManagerFromConfig()
	engine := auth.NewEngine(userStore, mailer, tokens, redisClient)

	authService := services.NewAuthService(engine, redisClient)
	profileService := services.NewProfileService(engine)
	productService := services.NewProductService(productStore)

	mW.InitAuthMiddleware(tokens, redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Access-Control-Allow-Origin"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"),
	))

	// Static file server for avatars and product images
	r.Handle("/static/uploads/*", http.StripPrefix("/static/uploads/",
		mW.StaticFileServer("./static/uploads")))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Public endpoints (no auth required)
		r.Post("/auth/register", authService.Register)
		r.Post("/auth/verify-otp", authService.VerifyOTP)
		r.Post("/auth/resend-otp", authService.ResendOTP)
		r.Post("/auth/login", authService.Login)
		r.Post("/auth/forget-password", authService.ForgetPassword)
		r.Post("/auth/reset-password", authService.ResetPassword)
		r.Post("/auth/logout", authService.Logout)

		r.Get("/products", productService.ListProducts)
		r.Get("/products/featured", productService.GetFeatured)
		r.Get("/products/categories/all", productService.GetCategories)
		r.Get("/products/{id}", productService.GetProduct)
		r.Get("/products/{id}/qr", productService.ProductQR)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(mW.AuthMiddleware)

			r.Get("/auth/me", authService.Me)

			r.Get("/profile", profileService.GetProfile)
			r.Put("/profile", profileService.UpdateProfile)
			r.Put("/profile/password", profileService.ChangePassword)
			r.Post("/profile/phone/otp", profileService.RequestPhoneOTP)
			r.Put("/profile/phone", profileService.ChangePhone)
			r.Post("/profile/email/otp", profileService.RequestEmailOTP)
			r.Put("/profile/email", profileService.ChangeEmail)
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
