package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pem-hub/pem-payments-hub/internal/application/command"
	"github.com/pem-hub/pem-payments-hub/internal/application/query"
	"github.com/pem-hub/pem-payments-hub/internal/domain/participant"
	"github.com/pem-hub/pem-payments-hub/internal/domain/reconciliation"
	"github.com/pem-hub/pem-payments-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Resource not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "pem-payments-hub",
		"status":  "running",
		"uptime":  s.Uptime().String(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if s.deps.HealthChecker != nil {
		if err := s.deps.HealthChecker.CheckStore(ctx); err != nil {
			checks["store"] = err.Error()
			healthy = false
		} else {
			checks["store"] = "ok"
		}
		if err := s.deps.HealthChecker.CheckCache(ctx); err != nil {
			checks["cache"] = err.Error()
		} else {
			checks["cache"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]interface{}{
		"healthy": healthy,
		"checks":  checks,
		"uptime":  s.Uptime().String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	s.handleHealth(w, r)
}

func (s *Server) handleLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILIATION HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type runReconciliationRequest struct {
	RawText    string `json:"raw_text"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	Program    string `json:"program"`
	UploadedBy string `json:"uploaded_by"`
	Act        string `json:"act,omitempty"`
}

func (s *Server) handleRunReconciliation(w http.ResponseWriter, r *http.Request) {
	var req runReconciliationRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	program, err := participant.ParseProgram(req.Program)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_program", "Unknown program: "+req.Program)
		return
	}

	result, err := s.deps.RunReconciliation.Handle(r.Context(), command.RunReconciliationCommand{
		RawText:    req.RawText,
		Month:      req.Month,
		Year:       req.Year,
		Program:    program,
		UploadedBy: req.UploadedBy,
		Act:        shared.ActReference(req.Act),
	})
	if err != nil {
		var report *reconciliation.BlockReport
		if errors.As(err, &report) {
			writeBlockReport(w, report)
			return
		}
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"upload_id":    result.UploadID,
		"period":       result.Period.String(),
		"program":      result.Program,
		"regulars":     result.Regulars,
		"news":         result.News,
		"absents":      result.Absents,
		"chunks":       result.Chunks,
		"committed_at": result.CommittedAt,
	})
}

// writeBlockReport returns the itemized blocking conditions so the operator
// can fix the file and retry.
func writeBlockReport(w http.ResponseWriter, report *reconciliation.BlockReport) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnprocessableEntity)

	issues := make([]map[string]string, 0, len(report.CategoryIssues))
	for _, issue := range report.CategoryIssues {
		issues = append(issues, map[string]string{
			"national_id": issue.NationalID.String(),
			"amount":      issue.Amount.String(),
			"reason":      string(issue.Reason),
		})
	}

	_ = json.NewEncoder(w).Encode(JSONResponse{
		Success: false,
		Error: &APIError{
			Code:    "reconciliation_blocked",
			Message: report.Error(),
		},
		Data: map[string]interface{}{
			"unknown_ids":     report.UnknownIDs,
			"duplicate_ids":   report.DuplicateIDs,
			"category_issues": issues,
		},
		Meta: &ResponseMeta{Timestamp: time.Now().UTC()},
	})
}

func (s *Server) handleReverseUpload(w http.ResponseWriter, r *http.Request) {
	uploadID := r.PathValue("id")

	result, err := s.deps.ReverseUpload.Handle(r.Context(), command.ReverseUploadCommand{
		UploadID: uploadID,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"upload_id":        result.UploadID,
		"payments_deleted": result.PaymentsDeleted,
		"absences_cleared": result.AbsencesCleared,
		"reversed_at":      result.ReversedAt,
	})
}

func (s *Server) handleUploadHistory(w http.ResponseWriter, r *http.Request) {
	q := query.GetUploadHistoryQuery{
		Limit: getQueryParamInt(r, "limit", 0),
		Month: getQueryParamInt(r, "month", 0),
		Year:  getQueryParamInt(r, "year", 0),
	}
	if raw := getQueryParam(r, "program", ""); raw != "" {
		program, err := participant.ParseProgram(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_program", "Unknown program: "+raw)
			return
		}
		q.Program = program
	}

	uploads, err := s.deps.GetUploadHistory.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uploads": uploads,
		"count":   len(uploads),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// ELIGIBILITY DASHBOARD
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) handleEligibility(w http.ResponseWriter, r *http.Request) {
	q := query.GetEligibilityQuery{
		SkipCache: getQueryParamBool(r, "fresh"),
	}
	if raw := getQueryParam(r, "program", ""); raw != "" {
		program, err := participant.ParseProgram(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_program", "Unknown program: "+raw)
			return
		}
		q.Program = program
	}

	snapshot, err := s.deps.GetEligibility.Handle(r.Context(), q)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRY ADMINISTRATION
// ══════════════════════════════════════════════════════════════════════════════

type enrollParticipantRequest struct {
	FullName   string `json:"full_name"`
	NationalID string `json:"national_id"`
	BirthDate  string `json:"birth_date"` // "YYYY-MM-DD"
	Program    string `json:"program"`
	IsStaff    bool   `json:"is_staff,omitempty"`
	Act        string `json:"act,omitempty"`
}

func (s *Server) handleEnrollParticipant(w http.ResponseWriter, r *http.Request) {
	var req enrollParticipantRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	program, err := participant.ParseProgram(req.Program)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_program", "Unknown program: "+req.Program)
		return
	}

	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_birth_date", "Expected YYYY-MM-DD")
		return
	}

	p, err := s.deps.EnrollParticipant.Handle(r.Context(), command.EnrollParticipantCommand{
		FullName:  req.FullName,
		RawID:     req.NationalID,
		BirthDate: birthDate,
		Program:   program,
		IsStaff:   req.IsStaff,
		Act:       shared.ActReference(req.Act),
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetParticipant(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	p, err := s.deps.Participants.GetByID(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

type deactivateParticipantRequest struct {
	Reason string `json:"reason"`
	Month  int    `json:"month"`
	Year   int    `json:"year"`
}

func (s *Server) handleDeactivateParticipant(w http.ResponseWriter, r *http.Request) {
	var req deactivateParticipantRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	err := s.deps.Deactivate.Handle(r.Context(), command.DeactivateParticipantCommand{
		ParticipantID: r.PathValue("id"),
		Reason:        req.Reason,
		Month:         req.Month,
		Year:          req.Year,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(participant.StatusBaja)})
}

func (s *Server) handleReactivateParticipant(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Deactivate.HandleReactivate(r.Context(), r.PathValue("id")); err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(participant.StatusActivo)})
}

func (s *Server) handleRegistryStats(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int, len(participant.AllPrograms()))
	total := 0
	for _, program := range participant.AllPrograms() {
		n, err := s.deps.Participants.CountByProgram(r.Context(), program)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		counts[string(program)] = n
		total += n
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":        total,
		"by_program":   counts,
		"generated_at": time.Now().UTC(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// PRICING CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

type configurationRequest struct {
	EffectiveMonth  int               `json:"effective_month"`
	EffectiveYear   int               `json:"effective_year"`
	CategoryAmounts map[string]string `json:"category_amounts,omitempty"`
	ProgramAmounts  map[string]string `json:"program_amounts,omitempty"`
	Act             string            `json:"act,omitempty"`
}

func (r configurationRequest) toCommand() (command.CreateConfigurationCommand, error) {
	cmd := command.CreateConfigurationCommand{
		EffectiveMonth:  r.EffectiveMonth,
		EffectiveYear:   r.EffectiveYear,
		CategoryAmounts: make(map[string]decimal.Decimal, len(r.CategoryAmounts)),
		ProgramAmounts:  make(map[participant.Program]decimal.Decimal, len(r.ProgramAmounts)),
		Act:             shared.ActReference(r.Act),
	}

	for category, raw := range r.CategoryAmounts {
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return cmd, err
		}
		cmd.CategoryAmounts[category] = amount
	}
	for rawProgram, raw := range r.ProgramAmounts {
		program, err := participant.ParseProgram(rawProgram)
		if err != nil {
			return cmd, err
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			return cmd, err
		}
		cmd.ProgramAmounts[program] = amount
	}
	return cmd, nil
}

func (s *Server) handleCreateConfiguration(w http.ResponseWriter, r *http.Request) {
	var req configurationRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd, err := req.toCommand()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_amounts", err.Error())
		return
	}

	cfg, err := s.deps.Configurations.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, cfg)
}

func (s *Server) handleEditConfiguration(w http.ResponseWriter, r *http.Request) {
	var req configurationRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	cmd, err := req.toCommand()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_amounts", err.Error())
		return
	}

	cfg, err := s.deps.Configurations.HandleEdit(r.Context(), command.EditConfigurationCommand{
		ID:              r.PathValue("id"),
		CategoryAmounts: cmd.CategoryAmounts,
		ProgramAmounts:  cmd.ProgramAmounts,
		Act:             cmd.Act,
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cfg)
}

// ══════════════════════════════════════════════════════════════════════════════
// SHARED HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decodeBody reads and decodes a JSON request body, writing the error
// response itself on failure.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	defer func() { _, _ = io.Copy(io.Discard, body) }()

	if err := json.NewDecoder(body).Decode(dest); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "Malformed JSON body: "+err.Error())
		return false
	}
	return true
}

// writeDomainError maps domain errors onto HTTP status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsAlreadyExists(err) || errors.Is(err, shared.ErrAlreadyApplied):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	case shared.IsStoreFailure(err):
		writeJSONError(w, http.StatusServiceUnavailable, "store_unavailable", err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
