package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"officina-bot/internal/officina"
	"officina-bot/internal/push"
)

func main() {
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// --- Store ---
	var store officina.Store
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			log.Fatalf("db open error: %v", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("db ping error: %v", err)
		}
		if err := officina.Migrate(ctx, db); err != nil {
			log.Fatalf("db migrate error: %v", err)
		}
		store = officina.NewStore(db)
	} else {
		log.Println("DATABASE_URL not set, using in-memory store")
		store = officina.NewMemStore()
	}

	// --- Outbound WhatsApp ---
	var messenger officina.Messenger
	accountSID := os.Getenv("TWILIO_ACCOUNT_SID")
	authToken := os.Getenv("TWILIO_AUTH_TOKEN")
	from := os.Getenv("TWILIO_WHATSAPP_NUMBER")
	if accountSID != "" && authToken != "" && from != "" {
		messenger = officina.NewTwilioMessenger(accountSID, authToken, from)
	} else {
		log.Println("Twilio not configured, outbound sends are simulated")
		messenger = officina.ConsoleMessenger{}
	}

	// --- Push ---
	var notifier push.Notifier
	if key := os.Getenv("FCM_SERVER_KEY"); key != "" {
		notifier = push.NewFCMClient(key)
	} else {
		log.Println("FCM_SERVER_KEY not set, push notifications are simulated")
		notifier = push.Noop{}
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// --- Bot module wiring ---
	engine := officina.NewEngine(store, notifier)
	handler := officina.NewHandler(engine, store, messenger)
	officina.RegisterRoutes(r, handler)

	log.Printf("listening on :%s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
