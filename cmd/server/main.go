package main

import (
	"fmt"
	"log"
	"net/http"

	"sponsorops/internal/api"
	"sponsorops/internal/api/handlers"
	"sponsorops/internal/api/middleware"
	"sponsorops/internal/engine/claims"
	"sponsorops/internal/engine/deals"
	"sponsorops/internal/engine/notify"
	"sponsorops/internal/engine/portal"
	"sponsorops/internal/engine/tickets"
	"sponsorops/internal/pkg/logger"
	"sponsorops/internal/platform/audit"
	"sponsorops/internal/platform/auth"
	"sponsorops/internal/platform/authz"
	"sponsorops/internal/platform/config"
	"sponsorops/internal/platform/database"
	"sponsorops/internal/platform/repositories"
	"sponsorops/internal/platform/uploads"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	uploadStore, err := uploads.NewStore(cfg.Uploads)
	if err != nil {
		log.Fatalf("Failed to initialize upload store: %v", err)
	}

	// Repositories
	orgRepo := repositories.NewOrganizationRepository(db)
	userRepo := repositories.NewUserRepository(db)
	membershipRepo := repositories.NewMembershipRepository(db)
	sponsorRepo := repositories.NewSponsorRepository(db)
	dealRepo := deals.NewRepository(db)
	claimRepo := claims.NewRepository(db)
	ticketRepo := tickets.NewRepository(db)
	notifyRepo := notify.NewRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	auditLog := audit.NewLogger(db)
	authzSvc := authz.NewService(membershipRepo)
	portalSvc := portal.NewService(sponsorRepo, dealRepo)
	dealSvc := deals.NewService(dealRepo, sponsorRepo, auditLog)
	claimSvc := claims.NewService(claimRepo, auditLog)
	ticketSvc := tickets.NewService(ticketRepo, auditLog)
	notifySvc := notify.NewService(notifyRepo, dealRepo)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc, userRepo)
	tenantMiddleware := middleware.NewTenantMiddleware(authzSvc)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	deps := &api.Dependencies{
		AuthHandler:         handlers.NewAuthHandler(userRepo, tokenSvc),
		OrgHandler:          handlers.NewOrgHandler(orgRepo, userRepo, membershipRepo, authzSvc, auditLog),
		SponsorHandler:      handlers.NewSponsorHandler(sponsorRepo, dealRepo, portalSvc, authzSvc, auditLog),
		DealHandler:         handlers.NewDealHandler(dealSvc, claimRepo, sponsorRepo, portalSvc, authzSvc, auditLog),
		DeliverableHandler:  handlers.NewDeliverableHandler(dealSvc, uploadStore, authzSvc),
		ClaimHandler:        handlers.NewClaimHandler(claimSvc, authzSvc),
		TicketHandler:       handlers.NewTicketHandler(ticketSvc, sponsorRepo, authzSvc),
		PortalHandler:       handlers.NewPortalHandler(portalSvc, dealSvc, claimSvc, ticketSvc, uploadStore),
		NotificationHandler: handlers.NewNotificationHandler(notifySvc, authzSvc, cfg.Notifications),
		ActivityHandler:     handlers.NewActivityHandler(auditLog, authzSvc),
		UploadHandler:       handlers.NewUploadHandler(dealRepo, uploadStore, tokenSvc, userRepo, portalSvc, authzSvc),
		ExportHandler:       handlers.NewExportHandler(orgRepo, membershipRepo, sponsorRepo, dealRepo, ticketRepo, claimRepo, authzSvc),
		HealthHandler:       handlers.NewHealthHandler(db),
		AuthMiddleware:      authMiddleware,
		TenantMiddleware:    tenantMiddleware,
		CORSMiddleware:      corsMiddleware,
		RateLimiter:         rateLimiter,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
