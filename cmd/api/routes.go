package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/otikamyid/kajian-hadir-app-sub000/internal/auth"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/checkin"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/config"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/history"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/invitation"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/participant"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/profile"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/provision"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/qrimage"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/session"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/settings"
	"github.com/otikamyid/kajian-hadir-app-sub000/internal/store"
)

type server struct {
	cfg          config.App
	db           *store.DB
	redis        *store.Redis
	sessions     *session.Service
	participants *participant.Service
	profiles     *profile.Repository
	invitations  *invitation.Repository
	attendance   *checkin.Repository
	history      *history.Repository
	checkins     *checkin.Service
	coordinator  *provision.Coordinator
	settings     *settings.Service
	qr           *qrimage.Client
}

func (s *server) registerRoutes(r *gin.Engine) {
	r.POST("/v1/auth/register", s.handleRegister)
	r.POST("/v1/auth/invitations/accept", s.handleAcceptInvitation)
	r.POST("/v1/auth/admin", s.handleRegisterAdmin)

	authed := r.Group("/v1", auth.RequireAuth(s.cfg.JWTSigningKey, s.cfg.JWTIssuer))
	authed.GET("/sessions", s.handleListSessions)
	authed.GET("/sessions/:id", s.handleGetSession)
	authed.POST("/checkins", s.handleSelfCheckIn)
	authed.GET("/profiles/me", s.handleMyProfile)
	authed.GET("/participants/:id/report", s.handleReport)

	admin := authed.Group("", auth.RequireAdmin())
	admin.POST("/sessions", s.handleCreateSession)
	admin.PUT("/sessions/:id", s.handleUpdateSession)
	admin.DELETE("/sessions/:id", s.handleDeactivateSession)
	admin.GET("/sessions/:id/stats", s.handleSessionStats)

	admin.GET("/participants", s.handleListParticipants)
	admin.POST("/participants", s.handleCreateParticipant)
	admin.GET("/participants/:id", s.handleGetParticipant)
	admin.DELETE("/participants/:id", s.handleDeleteParticipant)
	admin.POST("/participants/:id/blacklist", s.handleBlacklist)
	admin.DELETE("/participants/:id/blacklist", s.handleUnblacklist)
	admin.GET("/participants/:id/qr.png", s.handleParticipantQR)

	admin.POST("/invitations", s.handleCreateInvitation)
	admin.POST("/scan", s.handleScanCheckIn)

	admin.GET("/attendance", s.handleAttendanceHistory)
	admin.GET("/attendance/export", s.handleAttendanceExport)

	admin.GET("/settings/late-threshold", s.handleGetLateThreshold)
	admin.PUT("/settings/late-threshold", s.handleSetLateThreshold)
}

func (s *server) handleHealthz(c *gin.Context) {
	redisHealthy := s.redis.Healthy(c.Request.Context())
	dbHealthy := s.db.Client.PingContext(c.Request.Context()) == nil
	status := http.StatusOK
	if !redisHealthy || !dbHealthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
}

// Auth and provisioning

func (s *server) handleRegister(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accountID := uuid.NewString()
	res, err := s.coordinator.RegisterParticipant(c.Request.Context(), accountID, req.Email, req.Name, req.Phone)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondWithTokens(c, res)
}

func (s *server) handleAcceptInvitation(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accountID := uuid.NewString()
	res, err := s.coordinator.AcceptInvitation(c.Request.Context(), req.Token, req.Email, accountID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondWithTokens(c, res)
}

func (s *server) handleRegisterAdmin(c *gin.Context) {
	var req struct {
		Email          string `json:"email" binding:"required,email"`
		BootstrapToken string `json:"bootstrap_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.cfg.AdminBootstrapToken == "" || req.BootstrapToken != s.cfg.AdminBootstrapToken {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid bootstrap token"})
		return
	}

	res, err := s.coordinator.RegisterAdmin(c.Request.Context(), uuid.NewString(), req.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondWithTokens(c, res)
}

func (s *server) respondWithTokens(c *gin.Context, res provision.Result) {
	participantID := ""
	if res.Participant != nil {
		participantID = res.Participant.ID
	}
	tokens, err := auth.Issue(res.Profile.ID, res.Profile.Email, res.Profile.Role, participantID,
		s.cfg.JWTIssuer, s.cfg.JWTSigningKey, s.cfg.AccessTTL, s.cfg.RefreshTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"profile":       res.Profile,
		"participant":   res.Participant,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}

// Profiles

func (s *server) handleMyProfile(c *gin.Context) {
	identity := auth.IdentityFrom(c)
	prof, err := s.profiles.GetByID(c.Request.Context(), identity.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if prof == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	c.JSON(http.StatusOK, prof)
}

// Sessions

func (s *server) handleListSessions(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	sessions, err := s.sessions.List(c.Request.Context(), activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *server) handleGetSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type sessionRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	Date            string `json:"date" binding:"required"`
	StartTime       string `json:"start_time" binding:"required"`
	EndTime         string `json:"end_time" binding:"required"`
	Location        string `json:"location"`
	MaxParticipants *int   `json:"max_participants"`
	IsActive        *bool  `json:"is_active"`
}

func (req sessionRequest) toSession(id string) session.Session {
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return session.Session{
		ID:              id,
		Title:           req.Title,
		Description:     req.Description,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Location:        req.Location,
		MaxParticipants: req.MaxParticipants,
		IsActive:        active,
	}
}

func (s *server) handleCreateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := s.sessions.Create(c.Request.Context(), req.toSession(""))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (s *server) handleUpdateSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := s.sessions.Update(c.Request.Context(), req.toSession(c.Param("id")))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (s *server) handleDeactivateSession(c *gin.Context) {
	if err := s.sessions.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated"})
}

func (s *server) handleSessionStats(c *gin.Context) {
	sessionID := c.Param("id")
	ctx := c.Request.Context()

	// Counter maintained by the worker; fall back to a direct count when
	// it is missing.
	count, err := s.redis.Client.Get(ctx, "kajian:sessions:"+sessionID+":checkins").Int()
	if err != nil {
		count, err = s.attendance.CountBySession(ctx, sessionID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "checkins": count})
}

// Participants

func (s *server) handleListParticipants(c *gin.Context) {
	participants, err := s.participants.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": participants})
}

func (s *server) handleCreateParticipant(c *gin.Context) {
	var req struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email" binding:"required,email"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := s.participants.Create(c.Request.Context(), req.Name, req.Email, req.Phone)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *server) handleGetParticipant(c *gin.Context) {
	p, err := s.participants.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	// The linked account profile is nil for roster entries added by an
	// admin before the person registered.
	prof, err := s.profiles.GetByParticipantID(c.Request.Context(), p.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"participant": p, "profile": prof})
}

func (s *server) handleDeleteParticipant(c *gin.Context) {
	if err := s.participants.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (s *server) handleBlacklist(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	if err := s.participants.Blacklist(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "blacklisted"})
}

func (s *server) handleUnblacklist(c *gin.Context) {
	if err := s.participants.Unblacklist(c.Request.Context(), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unblacklisted"})
}

func (s *server) handleParticipantQR(c *gin.Context) {
	p, err := s.participants.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	png, err := s.qr.FetchPNG(c.Request.Context(), p.QRToken)
	if err != nil {
		log.Printf("qr image fetch for %s failed: %v", p.ID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "qr image fetch failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Invitations

func (s *server) handleCreateInvitation(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
		Name  string `json:"name" binding:"required"`
		Phone string `json:"phone"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	inv, err := s.invitations.Insert(c.Request.Context(), invitation.Invitation{
		Email: req.Email,
		Name:  req.Name,
		Phone: req.Phone,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, inv)
}

// Check-in

func (s *server) handleSelfCheckIn(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := auth.IdentityFrom(c)
	outcome, err := s.checkins.SelfCheckIn(c.Request.Context(), identity.ParticipantID, req.SessionID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondCheckIn(c, outcome)
}

func (s *server) handleScanCheckIn(c *gin.Context) {
	var req struct {
		QRToken   string `json:"qr_token" binding:"required"`
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := s.checkins.ScanCheckIn(c.Request.Context(), req.QRToken, req.SessionID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.respondCheckIn(c, outcome)
}

func (s *server) respondCheckIn(c *gin.Context, outcome checkin.Outcome) {
	if outcome.AlreadyCheckedIn {
		c.JSON(http.StatusOK, outcome)
		return
	}
	c.JSON(http.StatusCreated, outcome)
}

// History and reporting

func (s *server) handleAttendanceHistory(c *gin.Context) {
	records, err := s.history.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	filtered := history.Filter(records, c.Query("search"), c.Query("month"))
	c.JSON(http.StatusOK, gin.H{"records": filtered})
}

func (s *server) handleAttendanceExport(c *gin.Context) {
	records, err := s.history.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	filtered := history.Filter(records, c.Query("search"), c.Query("month"))
	data, err := history.ExportCSV(filtered)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+history.ExportFilename(time.Now())+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

func (s *server) handleReport(c *gin.Context) {
	participantID := c.Param("id")
	identity := auth.IdentityFrom(c)
	if !identity.IsAdmin() && identity.ParticipantID != participantID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your report"})
		return
	}

	ctx := c.Request.Context()
	sessions, err := s.sessions.List(ctx, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	rows, err := s.attendance.ListByParticipant(ctx, participantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history.BuildReport(participantID, sessions, rows))
}

// Settings

func (s *server) handleGetLateThreshold(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"late_threshold_minutes": s.settings.LateThresholdMinutes(c.Request.Context()),
	})
}

func (s *server) handleSetLateThreshold(c *gin.Context) {
	var req struct {
		Minutes int `json:"minutes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.settings.SetLateThreshold(c.Request.Context(), req.Minutes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"late_threshold_minutes": req.Minutes})
}

// writeError maps service errors onto HTTP statuses; unexpected errors stay
// generic 400s with the backend message forwarded verbatim.
func (s *server) writeError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, checkin.ErrSessionNotFound),
		errors.Is(err, checkin.ErrParticipantNotFound),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, participant.ErrNotFound),
		errors.Is(err, provision.ErrInvitationNotFound):
		status = http.StatusNotFound
	case errors.Is(err, checkin.ErrBlacklisted):
		status = http.StatusForbidden
	case errors.Is(err, participant.ErrEmailTaken):
		status = http.StatusConflict
	case errors.Is(err, provision.ErrTimeout):
		status = http.StatusGatewayTimeout
	default:
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
