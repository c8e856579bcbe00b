package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/service/pipeline"
	"voice-outbound-service/internal/service/remote"
	"voice-outbound-service/internal/service/synthesis"
)

// maxBodyBytes bounds a call request body.
const maxBodyBytes = 1 << 20

// Service is what the router needs from the application.
type Service interface {
	Run(ctx context.Context, in pipeline.Input) (*models.CallResult, error)
	Voices(lang models.Language) []synthesis.Voice
	Ready() bool
}

// CallRequest is the body of POST /v1/calls.
type CallRequest struct {
	Name               string  `json:"name"`
	Company            string  `json:"company"`
	TriggerType        string  `json:"triggerType"`
	TriggerDescription string  `json:"triggerDescription"`
	Language           string  `json:"language"`
	Tone               string  `json:"tone"`
	Voice              string  `json:"voice"`
	Speed              float64 `json:"speed"`
}

// CallResponse is the body of a successful POST /v1/calls.
type CallResponse struct {
	RunID        string          `json:"runId"`
	Contact      models.Contact  `json:"contact"`
	Trigger      models.Trigger  `json:"trigger"`
	Script       models.Script   `json:"script"`
	Language     models.Language `json:"language"`
	AutoDetected bool            `json:"autoDetected"`
	Provider     string          `json:"provider"`
	Model        string          `json:"model,omitempty"`
	Audio        AudioResponse   `json:"audio"`
}

// AudioResponse carries the WAV bytes base64-encoded in data.
type AudioResponse struct {
	Format          string  `json:"format"`
	DurationSeconds float64 `json:"durationSeconds"`
	LocalPath       string  `json:"localPath,omitempty"`
	Data            []byte  `json:"data"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Stage   string   `json:"stage,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

// NewRouter constructs the HTTP router for the service.
func NewRouter(svc Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !svc.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	h := &handler{svc: svc}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/calls", h.createCall)
		r.Get("/voices", h.listVoices)
	})

	return r
}

type handler struct {
	svc Service
}

func (h *handler) createCall(w http.ResponseWriter, r *http.Request) {
	logger := log.With().
		Str("component", "http").
		Str("requestId", middleware.GetReqID(r.Context())).
		Logger()

	var req CallRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}

	lang, ok := models.ParseLanguage(req.Language)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unsupported language " + req.Language})
		return
	}

	start := time.Now()
	res, err := h.svc.Run(r.Context(), pipeline.Input{
		FullName:           req.Name,
		Company:            req.Company,
		TriggerType:        req.TriggerType,
		TriggerDescription: req.TriggerDescription,
		Language:           lang,
		Tone:               req.Tone,
		Voice:              req.Voice,
		Speed:              req.Speed,
	})
	if err != nil {
		status, body := errorResponse(err)
		logger.Warn().Err(err).Int("status", status).Msg("Call request failed")
		writeJSON(w, status, body)
		return
	}

	logger.Info().
		Str("runId", res.RunID).
		Dur("elapsed", time.Since(start)).
		Msg("Call generated")

	writeJSON(w, http.StatusOK, CallResponse{
		RunID:        res.RunID,
		Contact:      res.Contact,
		Trigger:      res.Trigger,
		Script:       res.Script,
		Language:     res.Language,
		AutoDetected: res.AutoDetected,
		Provider:     res.Provider,
		Model:        res.Model,
		Audio: AudioResponse{
			Format:          res.Audio.Format,
			DurationSeconds: res.Audio.DurationSeconds,
			LocalPath:       res.Audio.LocalPath,
			Data:            res.Audio.Data,
		},
	})
}

// errorResponse maps a run error to a status: 400 for input errors, 500 for
// configuration errors, 502 for any other fatal stage.
func errorResponse(err error) (int, ErrorResponse) {
	var inputErr *pipeline.InputError
	if errors.As(err, &inputErr) {
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Missing: inputErr.Missing}
	}

	body := ErrorResponse{Error: err.Error()}
	var stageErr *pipeline.StageError
	if errors.As(err, &stageErr) {
		body.Stage = stageErr.Stage.Label()
	}

	switch {
	case remote.IsKind(err, remote.KindConfig):
		return http.StatusInternalServerError, body
	case stageErr != nil:
		return http.StatusBadGateway, body
	default:
		return http.StatusInternalServerError, body
	}
}

func (h *handler) listVoices(w http.ResponseWriter, r *http.Request) {
	lang, ok := models.ParseLanguage(r.URL.Query().Get("language"))
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unsupported language " + r.URL.Query().Get("language")})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"voices": h.svc.Voices(lang)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}
