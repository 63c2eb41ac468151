package main

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"coaching-platform/internal/config"
	"coaching-platform/internal/database"
	"coaching-platform/internal/handlers"
	"coaching-platform/internal/repositories"
	"coaching-platform/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.NewConnection(cfg.Database.URL, database.DefaultPool())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connection established")

	// Repositories
	promoRepo := repositories.NewPromoCodeRepository(db.DB)
	influencerRepo := repositories.NewInfluencerRepository(db.DB)
	commissionRepo := repositories.NewCommissionRepository(db.DB)
	withdrawalRepo := repositories.NewWithdrawalRepository(db.DB)
	subscriptionRepo := repositories.NewSubscriptionRepository(db.DB)
	webhookEventRepo := repositories.NewWebhookEventRepository(db.DB)

	// Payment processor client: real when credentials are configured,
	// in-memory mock otherwise.
	var processor services.ProcessorClient
	if cfg.Stripe.SecretKey != "" {
		processor = services.NewStripeService(services.StripeConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			Environment:   cfg.Stripe.Environment,
		})
		log.Printf("Payment processor: Stripe API (%s environment)", cfg.Stripe.Environment)
	} else {
		processor = services.NewMockProcessorService(cfg.Stripe.WebhookSecret)
		log.Println("Payment processor: using mock (no credentials provided)")
	}

	var notifier services.Notifier
	if cfg.Resend.APIKey != "" {
		notifier = services.NewResendNotifier(services.ResendConfig{
			APIKey:    cfg.Resend.APIKey,
			FromEmail: cfg.Resend.FromEmail,
			FromName:  cfg.Resend.FromName,
		})
	} else {
		notifier = services.NewMockNotifier()
		log.Println("Email: using mock (no Resend credentials provided)")
	}

	// Services
	couponSync := services.NewCouponSyncService(processor, promoRepo)
	promoService := services.NewPromoCodeService(promoRepo, couponSync)
	redemptionService := services.NewRedemptionService(promoRepo)
	commissionService := services.NewCommissionService(commissionRepo, influencerRepo, notifier)
	influencerService := services.NewInfluencerService(influencerRepo)
	withdrawalService := services.NewWithdrawalService(withdrawalRepo, influencerRepo, processor, notifier)
	webhookService := services.NewWebhookService(processor, redemptionService, subscriptionRepo, webhookEventRepo)

	// Handlers
	promoHandler := handlers.NewPromoCodeHandler(promoService, redemptionService)
	influencerHandler := handlers.NewInfluencerHandler(influencerService, commissionService)
	withdrawalHandler := handlers.NewWithdrawalHandler(withdrawalService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)

	// Background coupon reconciliation pass: re-mirrors promo codes whose
	// initial sync failed.
	if cfg.Engine.CouponSyncIntervalMinutes > 0 {
		interval := time.Duration(cfg.Engine.CouponSyncIntervalMinutes) * time.Minute
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for range ticker.C {
				synced, err := couponSync.ReconcileAll()
				if err != nil {
					log.Printf("Warning: coupon reconciliation pass failed: %v", err)
					continue
				}
				log.Printf("Coupon reconciliation pass complete: %d codes in sync", synced)
			}
		}()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Route("/promo-codes", func(r chi.Router) {
			r.Post("/", promoHandler.Create)
			r.Get("/", promoHandler.List)
			r.Get("/validate", promoHandler.Validate)
			r.Get("/{id}", promoHandler.Get)
			r.Put("/{id}", promoHandler.Update)
			r.Delete("/{id}", promoHandler.Delete)
		})

		r.Route("/influencers", func(r chi.Router) {
			r.Post("/", influencerHandler.Create)
			r.Get("/{id}", influencerHandler.Get)
			r.Post("/{id}/approve", influencerHandler.Approve)
			r.Post("/{id}/reject", influencerHandler.Reject)
			r.Put("/{id}/bank", influencerHandler.UpdateBank)
			r.Get("/{id}/balance", influencerHandler.Balance)
			r.Get("/{id}/commissions", influencerHandler.Commissions)
			r.Post("/{id}/withdrawals", withdrawalHandler.Create)
			r.Get("/{id}/withdrawals", withdrawalHandler.ListByInfluencer)
		})

		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", withdrawalHandler.ListAll)
			r.Get("/{id}", withdrawalHandler.Get)
			r.Post("/{id}/approve", withdrawalHandler.Approve)
			r.Post("/{id}/reject", withdrawalHandler.Reject)
			r.Post("/{id}/process", withdrawalHandler.Process)
		})
	})

	r.Post("/webhooks/processor", webhookHandler.Receive)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Printf("Server listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
