package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/platterhub/service-booking/internal/application"
	"github.com/platterhub/service-booking/internal/auth"
	"github.com/platterhub/service-booking/internal/domain/identity"
	"github.com/platterhub/service-booking/internal/middleware"
	"github.com/platterhub/service-booking/internal/response"
)

// JobHandler serves the worker-facing job board.
type JobHandler struct {
	service   *application.BookingService
	claimRate gin.HandlerFunc
}

// NewJobHandler creates a new JobHandler. claimRate guards the claim
// endpoint; pass nil to leave it unlimited.
func NewJobHandler(service *application.BookingService, claimRate gin.HandlerFunc) *JobHandler {
	if claimRate == nil {
		claimRate = func(c *gin.Context) { c.Next() }
	}
	return &JobHandler{service: service, claimRate: claimRate}
}

// RegisterRoutes registers worker job routes.
func (h *JobHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	jobs := r.Group("/api/v1/jobs")
	jobs.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(identity.RoleWorker))
	{
		jobs.GET("/available", h.ListAvailable)
		jobs.GET("/mine", h.ListMine)
		jobs.POST("/:id/claim", h.claimRate, h.Claim)
	}
}

// ListAvailable handles GET /api/v1/jobs/available.
func (h *JobHandler) ListAvailable(c *gin.Context) {
	page, limit := parsePagination(c)

	result, err := h.service.ListAvailableJobs(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ListMine handles GET /api/v1/jobs/mine.
func (h *JobHandler) ListMine(c *gin.Context) {
	workerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	page, limit := parsePagination(c)

	result, err := h.service.GetWorkerJobs(c.Request.Context(), workerID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// Claim handles POST /api/v1/jobs/:id/claim.
func (h *JobHandler) Claim(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	workerID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.ClaimJob(c.Request.Context(), workerID, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
