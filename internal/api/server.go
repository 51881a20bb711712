// Package api exposes the scan workflow over HTTP for the device UI. Every
// handler translates one request into one orchestrator command or a read of
// the current state; no workflow logic lives here.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pantryscan/pantryscan/internal/app/workflow"
	"github.com/pantryscan/pantryscan/internal/domain/scanning"
	"github.com/pantryscan/pantryscan/internal/infra/detection"
	"github.com/pantryscan/pantryscan/pkg/common/logger"
)

// Server routes UI requests to the workflow orchestrator.
type Server struct {
	orchestrator *workflow.Orchestrator
	detector     *detection.Source
	logger       *logger.Logger

	// latest holds the most recent state snapshot drained from the
	// orchestrator's state channel.
	latest chan workflow.State
}

// NewServer creates the HTTP control surface for the workflow.
func NewServer(orchestrator *workflow.Orchestrator, detector *detection.Source, logger *logger.Logger) *Server {
	s := &Server{
		orchestrator: orchestrator,
		detector:     detector,
		logger:       logger.With("component", "api_server"),
		latest:       make(chan workflow.State, 1),
	}
	return s
}

// Handler returns the instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/permission/request", s.handleRequestPermission)
	mux.HandleFunc("POST /v1/permission/settings", s.handleOpenSettings)
	mux.HandleFunc("POST /v1/frames", s.handleFrame)
	mux.HandleFunc("POST /v1/session/location", s.handleSelectLocation)
	mux.HandleFunc("POST /v1/session/manual-code", s.handleManualCode)
	mux.HandleFunc("POST /v1/session/expiration", s.handleCaptureExpiration)
	mux.HandleFunc("POST /v1/session/expiration/skip", s.handleSkipExpiration)
	mux.HandleFunc("POST /v1/session/approve", s.handleApprove)
	mux.HandleFunc("POST /v1/session/flag", s.handleFlag)
	mux.HandleFunc("POST /v1/session/retry", s.handleRetry)
	mux.HandleFunc("POST /v1/session/skip-after-failure", s.handleSkipAfterFailure)
	mux.HandleFunc("POST /v1/session/cancel", s.handleCancel)
	mux.HandleFunc("GET /v1/state", s.handleState)
	return otelhttp.NewHandler(mux, "api")
}

func (s *Server) handleRequestPermission(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.orchestrator.RequestPermission(r.Context()))
}

func (s *Server) handleOpenSettings(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.orchestrator.OpenSettings(r.Context()))
}

type frameRequest struct {
	Codes []struct {
		Format string `json:"format"`
		Value  string `json:"value"`
	} `json:"codes"`
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var req frameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	codes := make([]detection.RawCode, 0, len(req.Codes))
	for _, c := range req.Codes {
		codes = append(codes, detection.RawCode{
			Format: scanning.ParseCodeFormat(c.Format),
			Value:  c.Value,
		})
	}
	// The stabilization wait outlives this handler; the server cancels the
	// request context as soon as the 202 is written.
	s.detector.Offer(context.WithoutCancel(r.Context()), codes)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleSelectLocation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		LocationID string `json:"location_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.command(w, r, s.orchestrator.SelectLocation(r.Context(), req.LocationID))
}

func (s *Server) handleManualCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.command(w, r, s.orchestrator.SubmitManualCode(r.Context(), req.Code))
}

func (s *Server) handleCaptureExpiration(w http.ResponseWriter, r *http.Request) {
	image, err := io.ReadAll(io.LimitReader(r.Body, 8<<20))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.command(w, r, s.orchestrator.CaptureExpiration(r.Context(), image))
}

func (s *Server) handleSkipExpiration(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.orchestrator.SkipExpiration(r.Context()))
}

type approveRequest struct {
	Name           *string `json:"name"`
	Category       *string `json:"category"`
	ExpirationDate *string `json:"expiration_date"`
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	corrections := scanning.ReviewCorrections{Name: req.Name, Category: req.Category}
	if req.ExpirationDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.ExpirationDate)
		if err != nil {
			http.Error(w, "expiration_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		corrections.ExpirationDate = &parsed
	}
	s.command(w, r, s.orchestrator.Approve(r.Context(), corrections))
}

func (s *Server) handleFlag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.command(w, r, s.orchestrator.Flag(r.Context(), req.Reason))
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.orchestrator.Retry(r.Context()))
}

func (s *Server) handleSkipAfterFailure(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.orchestrator.SkipAfterFailure(r.Context()))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, s.orchestrator.Cancel(r.Context()))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	select {
	case state := <-s.orchestrator.StateChanges():
		// Re-publish for other readers.
		select {
		case s.latest <- state:
		default:
			select {
			case <-s.latest:
			default:
			}
			select {
			case s.latest <- state:
			default:
			}
		}
		s.writeState(w, r, state)
	default:
		select {
		case state := <-s.latest:
			select {
			case s.latest <- state:
			default:
			}
			s.writeState(w, r, state)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}

func (s *Server) writeState(w http.ResponseWriter, r *http.Request, state workflow.State) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stateDTO(state)); err != nil {
		s.logger.Error(r.Context(), "failed to encode state", "error", err)
	}
}

func (s *Server) command(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.logger.Error(r.Context(), "command rejected", "path", r.URL.Path, "error", err)
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type stateResponse struct {
	Permission        string           `json:"permission"`
	SessionID         string           `json:"session_id,omitempty"`
	Step              string           `json:"step,omitempty"`
	Barcode           string           `json:"barcode,omitempty"`
	CodeFormat        string           `json:"code_format,omitempty"`
	StorageLocationID string           `json:"storage_location_id,omitempty"`
	PendingItemID     string           `json:"pending_item_id,omitempty"`
	SuggestedCategory string           `json:"suggested_category,omitempty"`
	ConfidenceScore   float64          `json:"confidence_score,omitempty"`
	ExpirationDate    string           `json:"expiration_date,omitempty"`
	LastError         string           `json:"last_error,omitempty"`
	Locations         []locationDTO    `json:"locations,omitempty"`
	Product           *stateProductDTO `json:"product,omitempty"`
}

type locationDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type stateProductDTO struct {
	Name  string `json:"name"`
	Brand string `json:"brand"`
}

func stateDTO(state workflow.State) stateResponse {
	resp := stateResponse{
		Permission:        string(state.Permission),
		Step:              state.Step.String(),
		Barcode:           state.Barcode,
		CodeFormat:        state.CodeFormat.String(),
		StorageLocationID: state.StorageLocationID,
		PendingItemID:     state.PendingItemID,
		SuggestedCategory: state.SuggestedCategory,
		ConfidenceScore:   state.ConfidenceScore,
	}
	if state.SessionID != uuid.Nil {
		resp.SessionID = state.SessionID.String()
	}
	if state.ExpirationDate != nil {
		resp.ExpirationDate = state.ExpirationDate.Format("2006-01-02")
	}
	if state.LastError != nil {
		resp.LastError = state.LastError.String()
	}
	if state.Product != nil {
		resp.Product = &stateProductDTO{Name: state.Product.Name, Brand: state.Product.Brand}
	}
	for _, loc := range state.Locations {
		resp.Locations = append(resp.Locations, locationDTO{ID: loc.ID, Name: loc.Name, Type: string(loc.Type)})
	}
	return resp
}
