package httpgin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kirinyoku/reserveme/internal/domain"
	redisrepo "github.com/kirinyoku/reserveme/internal/repository/redis"
	"github.com/kirinyoku/reserveme/internal/service/admin"
	"github.com/kirinyoku/reserveme/internal/service/admission"
	"github.com/kirinyoku/reserveme/internal/service/query"
	"github.com/kirinyoku/reserveme/internal/service/reservations"
	"github.com/kirinyoku/reserveme/internal/service/reviews"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const idempotencyLockTTL = 60 * time.Second

type Admitter interface {
	Admit(ctx context.Context, req admission.Request) (int64, error)
}

type VenueReader interface {
	ListVenues(ctx context.Context) ([]domain.VenueListing, error)
	ListVenueTypes(ctx context.Context) ([]domain.VenueType, error)
	GetVenue(ctx context.Context, id int64) (*domain.VenueSummary, error)
	ListTables(ctx context.Context, venueID int64, includeInactive bool) ([]domain.Table, error)
	Availability(ctx context.Context, venueID int64, at time.Time) (*domain.VenueAvailability, error)
}

type ReservationManager interface {
	UpdateStatus(ctx context.Context, id int64, status domain.ReservationStatus) error
	ListByVenue(ctx context.Context, venueID int64, from, to time.Time, limit, offset int) ([]domain.Reservation, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.ClientReservation, error)
}

type VenueAdmin interface {
	CreateVenue(ctx context.Context, name string, description *string, venueTypeID *int64) (int64, error)
	CreateTable(ctx context.Context, venueID int64, tableNumber, capacity int) (*domain.Table, error)
	SetTableActive(ctx context.Context, tableID int64, active bool) error
	SetVenueActive(ctx context.Context, venueID int64, active bool) error
	DeleteVenue(ctx context.Context, venueID int64) error
	AssignStaffVenue(ctx context.Context, userID string, venueID *int64) error
}

type ReviewBoard interface {
	List(ctx context.Context, venueID int64) ([]domain.Review, error)
	Create(ctx context.Context, venueID int64, userID *string, rating *int, comment *string) (*domain.Review, error)
}

type Idempotency interface {
	GetResult(ctx context.Context, key string) (string, bool, error)
	AcquireLock(ctx context.Context, key string, lockTTL time.Duration) (string, bool, error)
	SaveResult(ctx context.Context, key string, jsonPayload string) error
	Release(ctx context.Context, key, token string) error
}

// Deps are the collaborators of the HTTP API. Idempotency, Limiter, Metrics
// and MetricsHandler are optional.
type Deps struct {
	Admission    Admitter
	Venues       VenueReader
	Reservations ReservationManager
	Admin        VenueAdmin
	Reviews      ReviewBoard

	Idempotency    Idempotency
	Limiter        RateLimiter
	Metrics        HTTPRecorder
	MetricsHandler http.Handler

	Logger *slog.Logger
	Now    func() time.Time
}

func NewRouter(d Deps, middlewares ...gin.HandlerFunc) *gin.Engine {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(d.Logger), RequestIDMiddleware(), CORS())
	if d.Metrics != nil {
		r.Use(MetricsMiddleware(d.Metrics))
	}
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// health
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if d.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(d.MetricsHandler))
	}

	limited := func(scope string, h gin.HandlerFunc) []gin.HandlerFunc {
		if d.Limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{RateLimit(d.Limiter, scope, d.Logger), h}
	}

	// Public API
	r.POST("/reservations", limited(ScopeReservations, handleCreateReservation(d))...)
	r.PUT("/reservations/:id/status", handleUpdateStatus(d))

	r.GET("/venues", handleListVenues(d))
	r.GET("/venue-types", handleListVenueTypes(d))
	r.GET("/venues/:id", handleGetVenue(d))
	r.GET("/venues/:id/tables", handleListTables(d))
	r.GET("/venues/:id/availability", handleGetAvailability(d))
	r.GET("/venues/:id/reservations", handleListVenueReservations(d))
	r.GET("/users/:id/reservations", handleListUserReservations(d))
	r.GET("/venues/:id/reviews", handleListReviews(d))
	r.POST("/venues/:id/reviews", limited(ScopeReviews, handleCreateReview(d))...)

	// Admin API
	adm := r.Group("/admin")
	if d.Limiter != nil {
		adm.Use(RateLimit(d.Limiter, ScopeAdmin, d.Logger))
	}
	{
		adm.POST("/venues", handleCreateVenue(d))
		adm.PATCH("/venues/:id", handleUpdateVenue(d))
		adm.DELETE("/venues/:id", handleDeleteVenue(d))
		adm.POST("/venues/:id/tables", handleCreateTable(d))
		adm.PATCH("/tables/:id", handleUpdateTable(d))
		adm.PUT("/users/:id/venue", handleAssignStaffVenue(d))
	}

	return r
}

// --- Handlers with Swagger annotations ---

// @Summary  Create reservation (idempotent)
// @Param    req body  CreateReservationRequest true "payload"
// @Param    Idempotency-Key header string false "replay-safe key"
// @Success  201 {object} CreateReservationResponse
// @Failure  400 {object} ErrorResponse "validation"
// @Failure  404 {object} ErrorResponse "venue unavailable"
// @Failure  409 {object} ErrorResponse "capacity exceeded / no capacity / idem in progress"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Failure  500 {object} ErrorResponse "transaction failure"
// @Router   /reservations [post]
func handleCreateReservation(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateReservationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ctx := c.Request.Context()

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		var idemStorageKey, lockToken string
		if d.Idempotency != nil && idemKey != "" {
			idemStorageKey = redisrepo.KeyIdemReservation(idemKey)

			if replayResult(c, d.Idempotency, idemStorageKey, idemKey) {
				return
			}

			token, locked, err := d.Idempotency.AcquireLock(ctx, idemStorageKey, idempotencyLockTTL)
			if err != nil {
				respondErr(c, err)
				return
			}
			if !locked {
				if replayResult(c, d.Idempotency, idemStorageKey, idemKey) {
					return
				}
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{
					Error: "idempotency key in progress",
					Kind:  "idempotency_in_progress",
				})
				return
			}
			lockToken = token
		}

		status := domain.ReservationPending
		if req.Status != nil {
			status = domain.ReservationStatus(*req.Status)
		}

		id, err := d.Admission.Admit(ctx, admission.Request{
			VenueID:         req.VenueID,
			TableNumber:     req.TableNumber,
			GuestsCount:     req.GuestsCount,
			ContactName:     req.ContactName,
			ContactPhone:    req.ContactPhone,
			ContactEmail:    req.ContactEmail,
			ReservationTime: req.ReservationTime,
			Status:          status,
			UserID:          req.UserID,
		})
		if err != nil {
			if lockToken != "" {
				_ = d.Idempotency.Release(context.WithoutCancel(ctx), idemStorageKey, lockToken)
			}
			respondErr(c, err)
			return
		}

		resp := CreateReservationResponse{ReservationID: id}

		if lockToken != "" {
			b, _ := json.Marshal(resp)
			if err := d.Idempotency.SaveResult(context.WithoutCancel(ctx), idemStorageKey, string(b)); err != nil {
				d.Logger.Warn("idempotency result not saved", "key", idemKey, "error", err)
			}
			c.Header("Idempotency-Key", idemKey)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// replayResult answers with a stored result for key, if there is one.
func replayResult(c *gin.Context, idem Idempotency, storageKey, idemKey string) bool {
	payload, ok, _ := idem.GetResult(c.Request.Context(), storageKey)
	if !ok {
		return false
	}

	c.Header("Idempotency-Key", idemKey)
	c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(payload))

	return true
}

// @Summary  Change reservation status
// @Param    id  path  int  true  "Reservation ID"
// @Param    req body  UpdateStatusRequest true "payload"
// @Success  204
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "transition not allowed"
// @Router   /reservations/{id}/status [put]
func handleUpdateStatus(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		err := d.Reservations.UpdateStatus(
			c.Request.Context(),
			id,
			domain.ReservationStatus(*req.Status),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Get venue
// @Param    id  path  int  true  "Venue ID"
// @Success  200  {object}  domain.VenueSummary
// @Failure  404  {object}  ErrorResponse
// @Router   /venues/{id} [get]
func handleGetVenue(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		v, err := d.Venues.GetVenue(c.Request.Context(), venueID)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, v, "public, max-age=60")
	}
}

// @Summary  List venue tables
// @Param    id                path   int   true  "Venue ID"
// @Param    include_inactive  query  bool  false "include inactive tables"
// @Success  200  {array}   domain.Table
// @Router   /venues/{id}/tables [get]
func handleListTables(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		includeInactive := c.Query("include_inactive") == "true"

		tables, err := d.Venues.ListTables(c.Request.Context(), venueID, includeInactive)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, tables, "public, max-age=30")
	}
}

// @Summary  Free seats around a time
// @Param    id  path   int     true  "Venue ID"
// @Param    at  query  string  false "RFC3339 instant, defaults to now"
// @Success  200  {object}  domain.VenueAvailability
// @Failure  404  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse "no capacity configured"
// @Router   /venues/{id}/availability [get]
func handleGetAvailability(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		at := d.Now()
		if s := c.Query("at"); s != "" {
			t, err := parseRFC3339(s)
			if err != nil {
				badRequest(c, "invalid at (RFC3339)")
				return
			}
			at = t
		}
		a, err := d.Venues.Availability(c.Request.Context(), venueID, at)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, a, "public, max-age=15")
	}
}

// @Summary  List venue reservations
// @Param    id     path   int     true  "Venue ID"
// @Param    from   query  string  false "RFC3339, inclusive"
// @Param    to     query  string  false "RFC3339, exclusive"
// @Param    limit  query  int     false "page size"
// @Param    offset query  int     false "offset"
// @Success  200  {array}   domain.Reservation
// @Router   /venues/{id}/reservations [get]
func handleListVenueReservations(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		from, ok := parseTimeQuery(c, "from")
		if !ok {
			return
		}
		to, ok := parseTimeQuery(c, "to")
		if !ok {
			return
		}
		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		out, err := d.Reservations.ListByVenue(c.Request.Context(), venueID, from, to, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  List a client's reservations
// @Param    id     path   string  true  "User ID"
// @Param    limit  query  int     false "page size"
// @Param    offset query  int     false "offset"
// @Success  200  {array}   domain.ClientReservation
// @Router   /users/{id}/reservations [get]
func handleListUserReservations(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")
		limit := parseIntDefault(c.Query("limit"), 0)
		offset := parseIntDefault(c.Query("offset"), 0)

		out, err := d.Reservations.ListByUser(c.Request.Context(), userID, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Create venue
// @Param    req body  CreateVenueRequest true "payload"
// @Success  201 {object} CreateVenueResponse
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "venue type not found"
// @Router   /admin/venues [post]
func handleCreateVenue(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateVenueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		id, err := d.Admin.CreateVenue(
			c.Request.Context(),
			req.Name,
			req.Description,
			req.VenueTypeID,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, CreateVenueResponse{VenueID: id})
	}
}

// @Summary  Open or close a venue
// @Param    id  path  int  true  "Venue ID"
// @Param    req body  UpdateVenueRequest true "payload"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /admin/venues/{id} [patch]
func handleUpdateVenue(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateVenueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := d.Admin.SetVenueActive(c.Request.Context(), venueID, *req.IsActive); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Soft-delete a venue
// @Param    id  path  int  true  "Venue ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /admin/venues/{id} [delete]
func handleDeleteVenue(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		if err := d.Admin.DeleteVenue(c.Request.Context(), venueID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Add a table to a venue
// @Param    id  path  int  true  "Venue ID"
// @Param    req body  CreateTableRequest true "payload"
// @Success  201 {object} domain.Table
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "table number taken"
// @Router   /admin/venues/{id}/tables [post]
func handleCreateTable(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req CreateTableRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		t, err := d.Admin.CreateTable(c.Request.Context(), venueID, req.TableNumber, req.Capacity)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

// @Summary  Activate or deactivate a table
// @Param    id  path  int  true  "Table ID"
// @Param    req body  UpdateTableRequest true "payload"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /admin/tables/{id} [patch]
func handleUpdateTable(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		tableID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req UpdateTableRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := d.Admin.SetTableActive(c.Request.Context(), tableID, *req.IsActive); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Venue catalogue
// @Success  200  {array}  domain.VenueListing
// @Router   /venues [get]
func handleListVenues(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		venues, err := d.Venues.ListVenues(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, venues, "public, max-age=30")
	}
}

// @Summary  List venue types
// @Success  200  {array}  domain.VenueType
// @Router   /venue-types [get]
func handleListVenueTypes(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		types, err := d.Venues.ListVenueTypes(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		writeJSONWithCache(c, http.StatusOK, types, "public, max-age=600")
	}
}

// @Summary  List venue reviews, newest first
// @Param    id  path  int  true  "Venue ID"
// @Success  200  {array}  domain.Review
// @Router   /venues/{id}/reviews [get]
func handleListReviews(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		out, err := d.Reviews.List(c.Request.Context(), venueID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// @Summary  Review a venue
// @Param    id  path  int  true  "Venue ID"
// @Param    req body  CreateReviewRequest true "payload"
// @Success  201 {object} domain.Review
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "venue not found"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /venues/{id}/reviews [post]
func handleCreateReview(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		venueID, ok := parseInt64Param(c, "id")
		if !ok {
			return
		}
		var req CreateReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		rv, err := d.Reviews.Create(c.Request.Context(), venueID, req.UserID, req.Rating, req.Comment)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, rv)
	}
}

// @Summary  Assign a staff user to a venue
// @Param    id  path  string  true  "User ID"
// @Param    req body  AssignVenueRequest true "payload, null venue_id unassigns"
// @Success  204
// @Failure  400 {object} ErrorResponse
// @Failure  404 {object} ErrorResponse "user or venue not found"
// @Router   /admin/users/{id}/venue [put]
func handleAssignStaffVenue(d Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AssignVenueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
		if err := d.Admin.AssignStaffVenue(c.Request.Context(), c.Param("id"), req.VenueID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// --- Helpers ---

func parseInt64Param(c *gin.Context, name string) (int64, bool) {
	s := c.Param(name)
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

func parseTimeQuery(c *gin.Context, name string) (time.Time, bool) {
	s := c.Query(name)
	if s == "" {
		return time.Time{}, true
	}
	t, err := parseRFC3339(s)
	if err != nil {
		badRequest(c, "invalid "+name+" (RFC3339)")
		return time.Time{}, false
	}
	return t, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Kind: "bad_request"})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var valErr admission.ValidationError
	var capErr admission.CapacityExceededError

	switch {
	// admission
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: valErr.Error(),
			Kind:  "validation",
			Field: valErr.Field,
		})
	case errors.Is(err, admission.ErrVenueUnavailable):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue is unavailable", Kind: "venue_unavailable"})
	case errors.Is(err, admission.ErrNoCapacityConfigured):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "venue has no active tables",
			Kind:  "no_capacity_configured",
		})
	case errors.As(err, &capErr):
		seats := capErr.AvailableSeats
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:          "not enough free seats",
			Kind:           "capacity_exceeded",
			AvailableSeats: &seats,
		})
	case errors.Is(err, admission.ErrTransactionFailure):
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "reservation could not be stored",
			Kind:  "transaction_failure",
		})
	// reservations
	case errors.Is(err, reservations.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "reservation not found"})
	case errors.Is(err, reservations.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Kind: "invalid_transition"})
	case errors.Is(err, reservations.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unknown reservation status", Kind: "validation", Field: "status"})
	// query
	case errors.Is(err, query.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
	// admin
	case errors.Is(err, admin.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
	case errors.Is(err, admin.ErrVenueTypeNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue type not found"})
	case errors.Is(err, admin.ErrTableNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "table not found"})
	case errors.Is(err, admin.ErrTableConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "table number already exists"})
	case errors.Is(err, admin.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
	case errors.Is(err, admin.ErrInvalidName),
		errors.Is(err, admin.ErrInvalidCapacity),
		errors.Is(err, admin.ErrInvalidTableNumber),
		errors.Is(err, admin.ErrInvalidUserID):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: unwrapMessage(err), Kind: "validation"})
	// reviews
	case errors.Is(err, reviews.ErrVenueNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "venue not found"})
	case errors.Is(err, reviews.ErrUserNotFound):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user does not exist", Kind: "validation", Field: "user_id"})
	case errors.Is(err, reviews.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: unwrapMessage(err), Kind: "validation", Field: "rating"})
	case errors.Is(err, reviews.ErrCommentTooLong):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: unwrapMessage(err), Kind: "validation", Field: "comment"})
	case errors.Is(err, reviews.ErrEmptyReview):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: unwrapMessage(err), Kind: "validation"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// unwrapMessage drops the "op:" prefixes added while the error travelled up.
func unwrapMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ":"); i >= 0 {
		return msg[i+1:]
	}
	return msg
}
