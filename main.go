// main.go
// Campus Lost & Found API - reporting, claim lifecycle, and the push
// notification relay over Firestore and Firebase Auth.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"

	"lostfound/assigner"
	"lostfound/audit"
	"lostfound/auth"
	"lostfound/claims"
	"lostfound/config"
	"lostfound/db"
	"lostfound/handlers"
	"lostfound/middleware"
	"lostfound/models"
	"lostfound/notify"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	// Load configuration
	cfg := config.Load()
	cfg.Validate()

	log.Printf("🚀 Starting Lost & Found API Server")
	log.Printf("📍 Environment: %s", cfg.Server.Environment)
	log.Printf("🔧 Port: %s", cfg.Server.Port)

	// Initialize Firebase app and clients
	ctx := context.Background()
	app, err := firebase.NewApp(ctx,
		&firebase.Config{ProjectID: cfg.Firebase.ProjectID},
		option.WithCredentialsFile(cfg.Firebase.CredentialsPath))
	if err != nil {
		log.Fatalf("❌ Failed to initialize Firebase app: %v", err)
	}

	firestoreDB, err := db.NewFirestoreDB(ctx, app)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	authClient, err := app.Auth(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Firebase Auth: %v", err)
	}

	messagingClient, err := app.Messaging(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Firebase Messaging: %v", err)
	}

	// Initialize service tokens for engine -> relay calls
	svcTokens := auth.NewServiceTokens(cfg.Notify.ServiceTokenSecret, cfg.Notify.ServiceTokenTTL)
	log.Printf("🔐 Service tokens initialized (ttl: %v)", cfg.Notify.ServiceTokenTTL)

	// Core: resolver, dispatcher, claim engine
	resolver := assigner.New(firestoreDB)
	relayURL := cfg.Notify.BaseURL
	if relayURL == "" {
		// The relay endpoints live in this process; point at ourselves.
		relayURL = fmt.Sprintf("http://127.0.0.1:%s", cfg.Server.Port)
	}
	dispatcher := notify.NewDispatcher(relayURL, svcTokens)
	engine := claims.NewEngine(firestoreDB, dispatcher, cfg.Claims.MinProofLen)
	recorder := audit.NewRecorder(firestoreDB)

	// Initialize handlers
	itemsHandler := handlers.NewItemsHandler(firestoreDB, resolver, recorder, cfg.Claims.MinSecretLen)
	claimsHandler := handlers.NewClaimsHandler(firestoreDB, engine, recorder)
	adminHandler := handlers.NewAdminHandler(firestoreDB, recorder)
	fcmHandler := handlers.NewFcmHandler(firestoreDB)
	notifyHandler := handlers.NewNotifyHandler(firestoreDB, messagingClient)
	log.Printf("✅ Handlers initialized")

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	rateLimiter.CleanupOldLimiters()
	log.Printf("🛡️  Rate limiter initialized (%d requests per %v)", cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Set up router
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("/health", handleHealth)

	// Protected routes (Firebase ID token or service token)
	authMiddleware := middleware.AuthMiddleware(authClient, svcTokens, firestoreDB)

	mux.Handle("/api/items", authMiddleware(http.HandlerFunc(itemsHandler.Items)))
	mux.Handle("/api/items/mine", authMiddleware(http.HandlerFunc(itemsHandler.Mine)))

	mux.Handle("/api/claims", authMiddleware(http.HandlerFunc(claimsHandler.Create)))
	mux.Handle("/api/claims/mine", authMiddleware(http.HandlerFunc(claimsHandler.Mine)))

	maintainerOrAdmin := middleware.RequireRole(models.RoleMaintainer, models.RoleAdmin)
	mux.Handle("/api/claims/assigned", authMiddleware(maintainerOrAdmin(http.HandlerFunc(claimsHandler.Assigned))))
	mux.Handle("/api/claims/decide", authMiddleware(maintainerOrAdmin(http.HandlerFunc(claimsHandler.Decide))))
	mux.Handle("/api/claims/review", authMiddleware(maintainerOrAdmin(http.HandlerFunc(claimsHandler.Review))))

	// Admin endpoints (admin only)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	mux.Handle("/api/admin/users", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.GetUsers))))
	mux.Handle("/api/admin/users/role", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.UpdateRole))))
	mux.Handle("/api/admin/users/disable", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.DisableUser))))
	mux.Handle("/api/admin/maintainers/profile", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.UpdateMaintainerProfile))))
	mux.Handle("/api/admin/claims/export", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.ExportClaims))))
	mux.Handle("/api/admin/logs", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.GetLogs))))

	// Device token registration
	mux.Handle("/api/fcm/token", authMiddleware(http.HandlerFunc(fcmHandler.RegisterToken)))

	// Notify relay endpoints; each re-validates the caller against the
	// claim document itself
	mux.Handle("/notify/claim-created", authMiddleware(http.HandlerFunc(notifyHandler.ClaimCreated)))
	mux.Handle("/notify/claim-status", authMiddleware(http.HandlerFunc(notifyHandler.ClaimStatus)))

	// Apply global middleware
	handler := middleware.CORSMiddleware(cfg.CORS.AllowedOrigins)(mux)
	handler = rateLimiter.Middleware()(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%d,"version":"1.0.0"}`, time.Now().Unix())
}
