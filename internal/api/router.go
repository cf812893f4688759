package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "sponsorops/internal/api/context"
	"sponsorops/internal/api/handlers"
	"sponsorops/internal/api/middleware"
)

type Dependencies struct {
	AuthHandler         *handlers.AuthHandler
	OrgHandler          *handlers.OrgHandler
	SponsorHandler      *handlers.SponsorHandler
	DealHandler         *handlers.DealHandler
	DeliverableHandler  *handlers.DeliverableHandler
	ClaimHandler        *handlers.ClaimHandler
	TicketHandler       *handlers.TicketHandler
	PortalHandler       *handlers.PortalHandler
	NotificationHandler *handlers.NotificationHandler
	ActivityHandler     *handlers.ActivityHandler
	UploadHandler       *handlers.UploadHandler
	ExportHandler       *handlers.ExportHandler
	HealthHandler       *handlers.HealthHandler

	AuthMiddleware   *middleware.AuthMiddleware
	TenantMiddleware *middleware.TenantMiddleware
	CORSMiddleware   *middleware.CORSMiddleware
	RateLimiter      *middleware.RateLimiter
}

// NewRouter builds the full route table. CORS and rate limiting wrap the
// whole router; auth and tenant resolution are chained per route.
func NewRouter(deps *Dependencies) http.Handler {
	router := httprouter.New()

	authMid := deps.AuthMiddleware
	tenantMid := deps.TenantMiddleware

	router.GET("/healthz", wrap(deps.HealthHandler.Check))

	// Authentication
	router.POST("/api/v1/auth/login", wrap(deps.AuthHandler.Login))

	// Organizations; list/create need auth only, the rest needs an
	// explicit org in the path
	router.GET("/api/v1/orgs", chain(deps.OrgHandler.List, authMid.Handle))
	router.POST("/api/v1/orgs", chain(deps.OrgHandler.Create, authMid.Handle))
	router.PATCH("/api/v1/orgs/:org_id", chain(deps.OrgHandler.Update, authMid.Handle))
	router.POST("/api/v1/orgs/:org_id/members", chain(deps.OrgHandler.AddMember, authMid.Handle))

	// Sponsors
	router.GET("/api/v1/sponsors", chain(deps.SponsorHandler.List, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/sponsors", chain(deps.SponsorHandler.Create, authMid.Handle, tenantMid.Handle))
	router.GET("/api/v1/sponsors/:sponsor_id", chain(deps.SponsorHandler.Get, authMid.Handle))
	router.PATCH("/api/v1/sponsors/:sponsor_id", chain(deps.SponsorHandler.Update, authMid.Handle))
	router.POST("/api/v1/sponsors/:sponsor_id/archive", chain(deps.SponsorHandler.Archive, authMid.Handle))
	router.POST("/api/v1/sponsors/:sponsor_id/restore", chain(deps.SponsorHandler.Restore, authMid.Handle))
	router.GET("/api/v1/sponsors/:sponsor_id/deals", chain(deps.SponsorHandler.ListDeals, authMid.Handle))
	router.POST("/api/v1/sponsors/:sponsor_id/portal/revoke", chain(deps.SponsorHandler.RevokePortal, authMid.Handle))
	router.POST("/api/v1/sponsors/:sponsor_id/portal/rotate", chain(deps.SponsorHandler.RotatePortal, authMid.Handle))

	// Deals
	router.POST("/api/v1/deals", chain(deps.DealHandler.Create, authMid.Handle))
	router.GET("/api/v1/deals/:deal_id", chain(deps.DealHandler.Get, authMid.Handle))
	router.PATCH("/api/v1/deals/:deal_id", chain(deps.DealHandler.Update, authMid.Handle))
	router.POST("/api/v1/deals/:deal_id/archive", chain(deps.DealHandler.Archive, authMid.Handle))
	router.POST("/api/v1/deals/:deal_id/unarchive", chain(deps.DealHandler.Unarchive, authMid.Handle))
	router.GET("/api/v1/deals/:deal_id/deliverables", chain(deps.DealHandler.ListDeliverables, authMid.Handle))
	router.POST("/api/v1/deals/:deal_id/deliverables", chain(deps.DealHandler.CreateDeliverable, authMid.Handle))
	router.GET("/api/v1/deals/:deal_id/brandkit", chain(deps.DealHandler.GetBrandKit, authMid.Handle))
	router.PUT("/api/v1/deals/:deal_id/brandkit", chain(deps.DealHandler.UpdateBrandKit, authMid.Handle))
	router.POST("/api/v1/deals/:deal_id/apply-template", chain(deps.DealHandler.ApplyTemplate, authMid.Handle))
	router.GET("/api/v1/deals/:deal_id/claims", chain(deps.DealHandler.ListClaims, authMid.Handle))
	router.POST("/api/v1/deals/:deal_id/portal/revoke", chain(deps.DealHandler.RevokePortal, authMid.Handle))
	router.POST("/api/v1/deals/:deal_id/portal/rotate", chain(deps.DealHandler.RotatePortal, authMid.Handle))
	router.GET("/api/v1/deals/:deal_id/report.pdf", chain(deps.DealHandler.ReportPDF, authMid.Handle))

	// Deliverables
	router.PATCH("/api/v1/deliverables/:deliverable_id", chain(deps.DeliverableHandler.Update, authMid.Handle))
	router.POST("/api/v1/deliverables/:deliverable_id/cancel", chain(deps.DeliverableHandler.Cancel, authMid.Handle))
	router.POST("/api/v1/deliverables/:deliverable_id/restore", chain(deps.DeliverableHandler.Restore, authMid.Handle))
	router.POST("/api/v1/deliverables/:deliverable_id/archive", chain(deps.DeliverableHandler.Archive, authMid.Handle))
	router.GET("/api/v1/deliverables/:deliverable_id/proofs", chain(deps.DeliverableHandler.ListProofs, authMid.Handle))
	router.POST("/api/v1/deliverables/:deliverable_id/proofs", chain(deps.DeliverableHandler.AddProof, authMid.Handle))
	router.POST("/api/v1/deliverables/:deliverable_id/proofs/upload", chain(deps.DeliverableHandler.UploadProof, authMid.Handle))
	router.GET("/api/v1/deliverables/:deliverable_id/comments", chain(deps.DeliverableHandler.ListComments, authMid.Handle))
	router.POST("/api/v1/deliverables/:deliverable_id/comments", chain(deps.DeliverableHandler.AddComment, authMid.Handle))

	// Claims
	router.GET("/api/v1/claims", chain(deps.ClaimHandler.List, authMid.Handle, tenantMid.Handle))
	router.PATCH("/api/v1/claims/:claim_id", chain(deps.ClaimHandler.Update, authMid.Handle))
	router.POST("/api/v1/claims/:claim_id/decide", chain(deps.ClaimHandler.Decide, authMid.Handle))
	router.POST("/api/v1/claims/:claim_id/archive", chain(deps.ClaimHandler.Archive, authMid.Handle))
	router.POST("/api/v1/claims/:claim_id/restore", chain(deps.ClaimHandler.Restore, authMid.Handle))

	// Tickets
	router.GET("/api/v1/tickets", chain(deps.TicketHandler.List, authMid.Handle, tenantMid.Handle))
	router.GET("/api/v1/tickets/:ticket_id", chain(deps.TicketHandler.Get, authMid.Handle))
	router.PATCH("/api/v1/tickets/:ticket_id", chain(deps.TicketHandler.Update, authMid.Handle))
	router.POST("/api/v1/tickets/:ticket_id/reply", chain(deps.TicketHandler.Reply, authMid.Handle))
	router.POST("/api/v1/tickets/:ticket_id/archive", chain(deps.TicketHandler.Archive, authMid.Handle))
	router.POST("/api/v1/tickets/:ticket_id/restore", chain(deps.TicketHandler.Restore, authMid.Handle))

	// Activity and notifications
	router.GET("/api/v1/activity", chain(deps.ActivityHandler.List, authMid.Handle, tenantMid.Handle))
	router.GET("/api/v1/notifications", chain(deps.NotificationHandler.List, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/notifications/sync", chain(deps.NotificationHandler.Sync, authMid.Handle, tenantMid.Handle))
	router.POST("/api/v1/notifications/mark-read", chain(deps.NotificationHandler.MarkRead, authMid.Handle, tenantMid.Handle))

	// Export
	router.GET("/api/v1/export/org.zip", chain(deps.ExportHandler.OrgZip, authMid.Handle, tenantMid.Handle))

	// Proof downloads carry their own dual-mode auth
	router.GET("/api/v1/uploads/proofs/:proof_id", wrap(deps.UploadHandler.DownloadProof))

	// Sponsor portal, token-authenticated
	router.GET("/api/v1/portal/sponsor/:token", wrap(deps.PortalHandler.SponsorView))
	router.GET("/api/v1/portal/deal/:token", wrap(deps.PortalHandler.DealView))
	router.POST("/api/v1/portal/tickets", wrap(deps.PortalHandler.CreateTicket))
	router.GET("/api/v1/portal/tickets/:ticket_id", wrap(deps.PortalHandler.GetTicket))
	router.POST("/api/v1/portal/tickets/:ticket_id/reply", wrap(deps.PortalHandler.ReplyTicket))
	router.POST("/api/v1/portal/claims", wrap(deps.PortalHandler.CreateClaim))
	router.POST("/api/v1/portal/deliverables/:deliverable_id/approve", wrap(deps.PortalHandler.ApproveDeliverable))
	router.GET("/api/v1/portal/deliverables/:deliverable_id/comments", wrap(deps.PortalHandler.ListComments))
	router.POST("/api/v1/portal/deliverables/:deliverable_id/comments", wrap(deps.PortalHandler.AddComment))
	router.POST("/api/v1/portal/deliverables/:deliverable_id/proofs", wrap(deps.PortalHandler.AddProof))
	router.POST("/api/v1/portal/deliverables/:deliverable_id/proofs/upload", wrap(deps.PortalHandler.UploadProof))

	var handler http.HandlerFunc = router.ServeHTTP
	if deps.RateLimiter != nil {
		handler = deps.RateLimiter.Handle(handler)
	}
	if deps.CORSMiddleware != nil {
		handler = deps.CORSMiddleware.Handle(handler)
	}
	return handler
}

func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// wrap converts to httprouter.Handle, carrying path params in the context.
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
