package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/lilRK/PERT-Analysis/internal/analysis"
	"github.com/lilRK/PERT-Analysis/internal/cpm"
	"github.com/lilRK/PERT-Analysis/internal/intake"
	"github.com/lilRK/PERT-Analysis/internal/render"
)

// analyzeResponse is the 200 body of POST /analyze.
type analyzeResponse struct {
	Status                string                    `json:"status"` // completed or partial
	EstimatedDuration     float64                   `json:"estimatedDuration"`
	CriticalPath          []string                  `json:"criticalPath"`
	CriticalActivities    []string                  `json:"criticalActivities"`
	ForwardPassGraph      string                    `json:"forwardPassGraph,omitempty"`
	BackwardPassGraph     string                    `json:"backwardPassGraph,omitempty"`
	CriticalPathGraph     string                    `json:"criticalPathGraph,omitempty"`
	Activities            []analysis.ActivityReport `json:"activities"`
	Waves                 []cpm.Wave                `json:"waves"`
	StandardDeviation     float64                   `json:"standardDeviation"`
	CompletionProbability *float64                  `json:"completionProbability,omitempty"`
	Warnings              []string                  `json:"warnings,omitempty"`
	RenderErrors          map[string]string         `json:"renderErrors,omitempty"`
}

type errorBody struct {
	Kind     string `json:"kind"`
	Activity string `json:"activity,omitempty"`
	Message  string `json:"message"`
}

type errorResponse struct {
	Status string    `json:"status"`
	Error  errorBody `json:"error"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(zap.String("request_id", RequestID(r.Context())))

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errorBody{
				Kind:    "RequestTooLarge",
				Message: "request body exceeds the configured limit",
			})
			return
		}
		writeError(w, http.StatusBadRequest, errorBody{Kind: "MalformedRequest", Message: err.Error()})
		return
	}

	req, err := intake.ParseJSON(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Kind: "MalformedRequest", Message: err.Error()})
		return
	}

	key, err := req.Fingerprint()
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Kind: "MalformedRequest", Message: err.Error()})
		return
	}
	if s.cache != nil {
		if body, ok := s.cache.Get(key); ok {
			logger.Debug("response served from cache")
			writeRaw(w, http.StatusOK, body)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.GetRequestTimeout())
	defer cancel()

	report, err := s.engine.Analyze(ctx, req)
	if err != nil {
		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			logger.Error("analysis failed", zap.Int("status", status), zap.Error(err))
		} else {
			logger.Info("analysis rejected", zap.String("kind", body.Kind), zap.String("activity", body.Activity))
		}
		writeError(w, status, body)
		return
	}

	body, err := json.Marshal(newAnalyzeResponse(report))
	if err != nil {
		logger.Error("encode response", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errorBody{Kind: "InternalError", Message: "internal error"})
		return
	}
	if s.cache != nil {
		s.cache.Add(key, body)
	}
	writeRaw(w, http.StatusOK, body)
}

// classify maps an analysis error to a status code and error body.
func classify(err error) (int, errorBody) {
	if ve, ok := analysis.AsValidation(err); ok {
		return http.StatusUnprocessableEntity, errorBody{
			Kind:     ve.Kind(),
			Activity: ve.ActivityName(),
			Message:  ve.Error(),
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable, errorBody{Kind: "Timeout", Message: "analysis did not finish in time"}
	}
	return http.StatusInternalServerError, errorBody{Kind: "InternalError", Message: "internal error"}
}

func newAnalyzeResponse(report *analysis.Report) analyzeResponse {
	resp := analyzeResponse{
		Status:                "completed",
		EstimatedDuration:     report.TotalDuration,
		CriticalPath:          report.CriticalPath,
		CriticalActivities:    report.CriticalActivities,
		Activities:            report.Activities,
		Waves:                 report.Waves,
		StandardDeviation:     report.StdDev,
		CompletionProbability: report.CompletionProbability,
		Warnings:              report.Warnings,
	}

	for _, d := range report.Diagrams {
		if d.Err != nil {
			if resp.RenderErrors == nil {
				resp.RenderErrors = make(map[string]string)
			}
			resp.RenderErrors[d.Kind.Key()] = d.Err.Error()
			continue
		}
		img := base64.StdEncoding.EncodeToString(d.PNG)
		switch d.Kind {
		case render.ForwardPass:
			resp.ForwardPassGraph = img
		case render.BackwardPass:
			resp.BackwardPassGraph = img
		case render.CriticalPath:
			resp.CriticalPathGraph = img
		}
	}
	if len(resp.RenderErrors) > 0 {
		resp.Status = "partial"
	}
	return resp
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSON(w, status, errorResponse{Status: "failed", Error: body})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, data)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}
