package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kozaktomas/photo-framer/internal/facecheck"
	"github.com/kozaktomas/photo-framer/internal/metrics"
	"github.com/sirupsen/logrus"
)

// EvaluateHandler runs the acceptance policy on caller-supplied detections.
type EvaluateHandler struct {
	policy  facecheck.Policy
	metrics *metrics.Collectors
	log     logrus.FieldLogger
}

// NewEvaluateHandler creates a new evaluate handler.
func NewEvaluateHandler(policy facecheck.Policy, m *metrics.Collectors, log logrus.FieldLogger) *EvaluateHandler {
	return &EvaluateHandler{policy: policy, metrics: m, log: log}
}

// EvaluateRequest is the body of POST /evaluate.
type EvaluateRequest struct {
	Frame      facecheck.Frame         `json:"frame"`
	Detections []facecheck.BoundingBox `json:"detections"`
}

// EvaluateResponse wraps a verdict with its acceptance flag.
type EvaluateResponse struct {
	facecheck.Verdict
	Accepted bool `json:"accepted"`
}

// Evaluate handles POST /evaluate.
func (h *EvaluateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	verdict, err := h.policy.Evaluate(req.Detections, req.Frame)
	if errors.Is(err, facecheck.ErrInvalidInput) {
		h.log.WithError(err).Debug("Rejected evaluation input")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "evaluation failed")
		return
	}

	h.metrics.ObserveEvaluation(string(verdict.FaceCount), string(verdict.Centered), string(verdict.Size))
	respondJSON(w, http.StatusOK, EvaluateResponse{Verdict: verdict, Accepted: verdict.Accepted()})
}
