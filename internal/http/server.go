package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/Lyndoncatan/Neu-LabLogs/internal/auth"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/config"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/identity"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/model"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/report"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/repository"
	"github.com/Lyndoncatan/Neu-LabLogs/internal/usage"
)

type Server struct {
	cfg      config.Config
	store    *repository.Store
	resolver *identity.Resolver
}

func NewServer(cfg config.Config, store *repository.Store, resolver *identity.Resolver) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		resolver: resolver,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/session", s.handleSession)
	r.With(s.authMiddleware).Get("/auth/me", s.handleGetMe)

	r.With(s.authMiddleware).Post("/scan", s.handleScan)

	r.With(s.authMiddleware, s.requireProfessor).Post("/entries", s.handleCreateEntry)
	r.With(s.authMiddleware).Get("/entries", s.handleListEntries)
	r.With(s.authMiddleware).Delete("/entries/{entryId}", s.handleDeleteEntry)

	r.With(s.authMiddleware).Get("/rooms", s.handleListRooms)
	r.With(s.authMiddleware).Get("/rooms/{roomId}/qrcode", s.handleRoomQRCode)
	r.With(s.authMiddleware, s.requireAdmin).Post("/rooms", s.handleCreateRoom)
	r.With(s.authMiddleware, s.requireAdmin).Patch("/rooms/{roomId}", s.handlePatchRoom)
	r.With(s.authMiddleware, s.requireAdmin).Delete("/rooms/{roomId}", s.handleDeleteRoom)

	r.With(s.authMiddleware, s.requireAdmin).Get("/teachers", s.handleListTeachers)
	r.With(s.authMiddleware, s.requireAdmin).Post("/teachers", s.handleCreateTeacher)
	r.With(s.authMiddleware, s.requireAdmin).Patch("/teachers/{teacherId}", s.handlePatchTeacher)
	r.With(s.authMiddleware, s.requireAdmin).Delete("/teachers/{teacherId}", s.handleDeleteTeacher)

	r.With(s.authMiddleware, s.requireAdmin).Get("/reports/summary", s.handleReportSummary)
	r.With(s.authMiddleware, s.requireAdmin).Get("/reports/entries", s.handleReportEntries)
	r.With(s.authMiddleware, s.requireAdmin).Get("/reports/export.csv", s.handleExportCSV)
	r.With(s.authMiddleware, s.requireAdmin).Get("/reports/export.pdf", s.handleExportPDF)

	return r
}

// Auth

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		claims, err := auth.ParseToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		if claims.Role != string(model.RoleAdmin) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireProfessor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}
		if claims.Role != string(model.RoleProfessor) {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Demo login

type demoUser struct {
	ID   string
	Role model.Role
	Name string
}

var demoUsers = map[string]demoUser{
	"prof@lab.edu":  {ID: "1", Role: model.RoleProfessor, Name: "Dr. Smith"},
	"admin@lab.edu": {ID: "2", Role: model.RoleAdmin, Name: "Admin User"},
}

const demoPassword = "password"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}

type authResponse struct {
	AccessToken string       `json:"accessToken"`
	User        userResponse `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusInternalServerError, "login_failed")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}
	if req.Password != demoPassword {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}
	demo, ok := demoUsers[req.Email]
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	user := model.User{ID: demo.ID, Email: req.Email, Role: demo.Role, Name: demo.Name}
	token, err := s.issueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "login_failed")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AccessToken: token, User: mapUser(user)})
}

// Identity resolution

type sessionRequest struct {
	Subject       string `json:"subject"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	PreferredRole string `json:"preferredRole"`
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	preferred := model.Role(req.PreferredRole)
	if preferred != "" && preferred != model.RoleAdmin && preferred != model.RoleProfessor {
		writeError(w, http.StatusBadRequest, "invalid_role")
		return
	}

	user, err := s.resolver.Resolve(r.Context(), identity.Input{
		Subject:       req.Subject,
		Email:         req.Email,
		Name:          req.Name,
		PreferredRole: preferred,
	})
	if err != nil {
		var resolveErr *identity.Error
		if errors.As(err, &resolveErr) {
			switch resolveErr.Code {
			case identity.ErrMissingEmail:
				writeError(w, http.StatusBadRequest, resolveErr.Code)
			case identity.ErrDomainNotAllowed:
				writeJSON(w, http.StatusForbidden, map[string]string{
					"error":   resolveErr.Code,
					"message": resolveErr.Message,
				})
			default:
				writeError(w, http.StatusInternalServerError, "server_error")
			}
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	token, err := s.issueToken(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AccessToken: token, User: mapUser(user)})
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
		Name:  claims.Name,
	})
}

func (s *Server) issueToken(user model.User) (string, error) {
	return auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, auth.Claims{
		UserID: user.ID,
		Role:   string(user.Role),
		Email:  user.Email,
		Name:   user.Name,
	})
}

// Scanning

type scanRequest struct {
	Value string `json:"value"`
}

type scannedIdentityResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Department string `json:"department"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	value := strings.TrimSpace(req.Value)
	if value == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	scanned, err := identity.ParseScan(value)
	if err == nil {
		writeJSON(w, http.StatusOK, mapScanned(scanned))
		return
	}

	// Fall back to a registry lookup by code, mirroring the scanner's mock
	// database path for plain ID payloads.
	teacher, lookupErr := s.store.GetTeacher(r.Context(), value)
	if lookupErr != nil {
		if errors.Is(lookupErr, pgx.ErrNoRows) {
			writeError(w, http.StatusUnprocessableEntity, identity.ErrInvalidScanFormat)
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, scannedIdentityResponse{
		ID:         teacher.ID,
		Name:       teacher.Name,
		Department: teacher.Department,
	})
}

// Usage entries

type entryResponse struct {
	ID             string     `json:"id"`
	TeacherID      string     `json:"teacherId"`
	TeacherName    string     `json:"teacherName"`
	BuildingNumber string     `json:"buildingNumber"`
	RoomNumber     string     `json:"roomNumber"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime,omitempty"`
	NumStudents    int        `json:"numStudents"`
	Purpose        string     `json:"purpose"`
	Equipment      []string   `json:"equipment"`
}

type createEntryRequest struct {
	TeacherID      string   `json:"teacherId"`
	TeacherName    string   `json:"teacherName"`
	Department     string   `json:"department"`
	BuildingNumber string   `json:"buildingNumber"`
	RoomNumber     string   `json:"roomNumber"`
	NumStudents    int      `json:"numStudents"`
	Purpose        string   `json:"purpose"`
	Equipment      []string `json:"equipment"`
}

type toggleResponse struct {
	Action string        `json:"action"`
	Entry  entryResponse `json:"entry"`
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req createEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	result, err := usage.Toggle(r.Context(), s.store, time.Now().UTC(), usage.Submission{
		Teacher: model.ScannedIdentity{
			ID:         req.TeacherID,
			Name:       req.TeacherName,
			Department: req.Department,
		},
		BuildingNumber: req.BuildingNumber,
		RoomNumber:     req.RoomNumber,
		NumStudents:    req.NumStudents,
		Purpose:        req.Purpose,
		Equipment:      req.Equipment,
	})
	if err != nil {
		var toggleErr *usage.Error
		if errors.As(err, &toggleErr) && toggleErr.Code != usage.ErrServerError {
			writeError(w, http.StatusBadRequest, toggleErr.Code)
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	action := "checked_in"
	if result.CheckedOut {
		action = "checked_out"
	}
	writeJSON(w, http.StatusOK, toggleResponse{Action: action, Entry: mapEntry(result.Entry)})
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListEntries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapEntries(entries))
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "entryId")
	if err := s.store.DeleteEntry(r.Context(), entryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "entry_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rooms

type roomResponse struct {
	ID        string   `json:"id"`
	Number    string   `json:"number"`
	Name      string   `json:"name"`
	Capacity  int      `json:"capacity"`
	Equipment []string `json:"equipment"`
	QRCode    string   `json:"qrCode"`
}

type createRoomRequest struct {
	Number    string   `json:"number"`
	Name      string   `json:"name"`
	Capacity  int      `json:"capacity"`
	Equipment []string `json:"equipment"`
}

type patchRoomRequest struct {
	Name      *string   `json:"name"`
	Capacity  *int      `json:"capacity"`
	Equipment *[]string `json:"equipment"`
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.store.ListRooms(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resp := make([]roomResponse, 0, len(rooms))
	for _, room := range rooms {
		resp = append(resp, mapRoom(room))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Number = strings.TrimSpace(req.Number)
	req.Name = strings.TrimSpace(req.Name)
	if req.Number == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	if req.Capacity <= 0 {
		req.Capacity = 20
	}

	now := time.Now().UTC()
	room := model.Room{
		ID:        "room-" + req.Number,
		Number:    req.Number,
		Name:      req.Name,
		Capacity:  req.Capacity,
		Equipment: req.Equipment,
		QRCode:    "room-" + req.Number,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if room.Equipment == nil {
		room.Equipment = []string{}
	}
	if err := s.store.CreateRoom(r.Context(), room); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeError(w, http.StatusConflict, "room_exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, mapRoom(room))
}

func (s *Server) handlePatchRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	room, err := s.store.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "room_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	var req patchRoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		room.Name = strings.TrimSpace(*req.Name)
	}
	if req.Capacity != nil && *req.Capacity > 0 {
		room.Capacity = *req.Capacity
	}
	if req.Equipment != nil {
		room.Equipment = *req.Equipment
	}
	room.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateRoom(r.Context(), room); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapRoom(room))
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	if err := s.store.DeleteRoom(r.Context(), roomID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "room_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRoomQRCode(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	room, err := s.store.GetRoom(r.Context(), roomID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "room_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	png, err := qrcode.Encode(room.QRCode, qrcode.Medium, 256)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// Teacher accounts

type teacherResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department"`
	Status     string `json:"status"`
}

type createTeacherRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

type patchTeacherRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Department *string `json:"department"`
	Status     *string `json:"status"`
}

func (s *Server) handleListTeachers(w http.ResponseWriter, r *http.Request) {
	includeHidden := r.URL.Query().Get("includeHidden") == "true"
	teachers, err := s.store.ListTeachers(r.Context(), includeHidden)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	resp := make([]teacherResponse, 0, len(teachers))
	for _, teacher := range teachers {
		resp = append(resp, mapTeacher(teacher))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateTeacher(w http.ResponseWriter, r *http.Request) {
	var req createTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.ID = strings.TrimSpace(req.ID)
	req.Name = strings.TrimSpace(req.Name)
	req.Department = strings.TrimSpace(req.Department)
	if req.ID == "" || req.Name == "" || req.Department == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	now := time.Now().UTC()
	teacher := model.TeacherAccount{
		ID:         req.ID,
		Name:       req.Name,
		Email:      strings.TrimSpace(strings.ToLower(req.Email)),
		Department: req.Department,
		Status:     model.TeacherStatusActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.CreateTeacher(r.Context(), teacher); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			writeError(w, http.StatusConflict, "teacher_exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusCreated, mapTeacher(teacher))
}

func (s *Server) handlePatchTeacher(w http.ResponseWriter, r *http.Request) {
	teacherID := chi.URLParam(r, "teacherId")
	teacher, err := s.store.GetTeacher(r.Context(), teacherID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "teacher_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	var req patchTeacherRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) != "" {
		teacher.Name = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		teacher.Email = strings.TrimSpace(strings.ToLower(*req.Email))
	}
	if req.Department != nil && strings.TrimSpace(*req.Department) != "" {
		teacher.Department = strings.TrimSpace(*req.Department)
	}
	if req.Status != nil {
		status, err := normalizeTeacherStatus(*req.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_status")
			return
		}
		teacher.Status = status
	}
	teacher.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTeacher(r.Context(), teacher); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, mapTeacher(teacher))
}

func (s *Server) handleDeleteTeacher(w http.ResponseWriter, r *http.Request) {
	teacherID := chi.URLParam(r, "teacherId")
	if err := s.store.DeleteTeacher(r.Context(), teacherID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "teacher_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reports

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListEntries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(entries))
}

type reportEntriesResponse struct {
	Total    int             `json:"total"`
	Filtered int             `json:"filtered"`
	Entries  []entryResponse `json:"entries"`
	Summary  report.Summary  `json:"summary"`
}

func (s *Server) handleReportEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListEntries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	filter, ok := filterFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	filtered := report.Apply(filter, entries)
	writeJSON(w, http.StatusOK, reportEntriesResponse{
		Total:    len(entries),
		Filtered: len(filtered),
		Entries:  mapEntries(filtered),
		Summary:  report.Summarize(filtered),
	})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListEntries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	filter, ok := filterFromQuery(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	filtered := report.Apply(filter, entries)

	filename := fmt.Sprintf("lab-usage-report-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_ = report.WriteCSV(w, filtered)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	period, ok := report.ParsePeriod(r.URL.Query().Get("period"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_period")
		return
	}
	entries, err := s.store.ListEntries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	now := time.Now().UTC()
	filtered := report.ApplyPeriod(period, now, entries)

	filename := fmt.Sprintf("lab-usage-report-%s-%s.pdf", period, now.Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_ = report.WritePDF(w, filtered, period, now)
}

func filterFromQuery(r *http.Request) (report.Filter, bool) {
	filter := report.Filter{
		Room:    strings.TrimSpace(r.URL.Query().Get("room")),
		Purpose: strings.TrimSpace(r.URL.Query().Get("purpose")),
	}
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return report.Filter{}, false
		}
		filter.From = parsed
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return report.Filter{}, false
		}
		filter.To = parsed
	}
	return filter, true
}

// Mapping helpers

func mapUser(user model.User) userResponse {
	return userResponse{
		ID:    user.ID,
		Email: user.Email,
		Role:  string(user.Role),
		Name:  user.Name,
	}
}

func mapScanned(scanned model.ScannedIdentity) scannedIdentityResponse {
	return scannedIdentityResponse{
		ID:         scanned.ID,
		Name:       scanned.Name,
		Department: scanned.Department,
	}
}

func mapEntry(entry model.UsageEntry) entryResponse {
	equipment := entry.Equipment
	if equipment == nil {
		equipment = []string{}
	}
	return entryResponse{
		ID:             entry.ID,
		TeacherID:      entry.TeacherID,
		TeacherName:    entry.TeacherName,
		BuildingNumber: entry.BuildingNumber,
		RoomNumber:     entry.RoomNumber,
		StartTime:      entry.StartTime,
		EndTime:        entry.EndTime,
		NumStudents:    entry.NumStudents,
		Purpose:        entry.Purpose,
		Equipment:      equipment,
	}
}

func mapEntries(entries []model.UsageEntry) []entryResponse {
	resp := make([]entryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, mapEntry(entry))
	}
	return resp
}

func mapRoom(room model.Room) roomResponse {
	equipment := room.Equipment
	if equipment == nil {
		equipment = []string{}
	}
	return roomResponse{
		ID:        room.ID,
		Number:    room.Number,
		Name:      room.Name,
		Capacity:  room.Capacity,
		Equipment: equipment,
		QRCode:    room.QRCode,
	}
}

func mapTeacher(teacher model.TeacherAccount) teacherResponse {
	return teacherResponse{
		ID:         teacher.ID,
		Name:       teacher.Name,
		Email:      teacher.Email,
		Department: teacher.Department,
		Status:     string(teacher.Status),
	}
}

func normalizeTeacherStatus(value string) (model.TeacherStatus, error) {
	switch model.TeacherStatus(value) {
	case model.TeacherStatusActive, model.TeacherStatusBlocked, model.TeacherStatusHidden:
		return model.TeacherStatus(value), nil
	default:
		return "", errInvalid
	}
}

// Utilities

var errInvalid = errors.New("invalid value")

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
