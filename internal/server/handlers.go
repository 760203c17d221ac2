package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/iwvelando/loan-compare/internal/auth"
	"github.com/iwvelando/loan-compare/internal/finance"
	"github.com/iwvelando/loan-compare/internal/report"
	"github.com/iwvelando/loan-compare/pkg/loans"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Actions accepted by the /api/finance dispatcher.
const (
	actionCalculateLoanTerm         = "calculateLoanTerm"
	actionGenerateComparativeReport = "generateComparativeReport"
)

type calculateResponse struct {
	Result   loans.LoanResult `json:"result"`
	Warnings []string         `json:"warnings"`
}

// optionPayload is the body of option create and update requests.
type optionPayload struct {
	SourceName string `json:"financeSourceName"`
	loans.LoanInput
}

type compareRequest struct {
	IDs []string `json:"ids"`
}

type exportDocument struct {
	Options []finance.Option `yaml:"options"`
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"

	var input loans.LoanInput
	if !h.decodeJSON(w, r, &input, op) {
		return
	}

	result, warnings, err := h.service.Calculate(input)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	if warnings == nil {
		warnings = []string{}
	}

	h.writeJSON(w, http.StatusOK, calculateResponse{Result: result, Warnings: warnings})
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"

	var req report.Request
	if !h.decodeJSON(w, r, &req, op) {
		return
	}
	h.writeReport(w, r, req, op)
}

// handleFinanceAction serves the single-endpoint form of the calculator and report calls. The
// remaining fields of the body are the parameters of the named action.
func (h *handler) handleFinanceAction(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleFinanceAction"

	body, ok := h.readBody(w, r, op)
	if !ok {
		return
	}

	var envelope struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	switch envelope.Action {
	case actionCalculateLoanTerm:
		var input loans.LoanInput
		if err := json.Unmarshal(body, &input); err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
			return
		}
		result, _, err := h.service.Calculate(input)
		if err != nil {
			h.respondServiceError(w, err, op)
			return
		}
		h.writeJSON(w, http.StatusOK, result)
	case actionGenerateComparativeReport:
		var req report.Request
		if err := json.Unmarshal(body, &req); err != nil {
			h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
			return
		}
		h.writeReport(w, r, req, op)
	default:
		h.respondErrorWithOp(w, http.StatusBadRequest, "Invalid action", op)
	}
}

func (h *handler) writeReport(w http.ResponseWriter, r *http.Request, req report.Request, op string) {
	start := time.Now()
	text, err := h.service.CompareOffers(r.Context(), req.FinanceOptions)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	h.logger.Info("report served",
		zap.String("op", op),
		zap.Int("options", len(req.FinanceOptions)),
		zap.Duration("duration", time.Since(start)),
	)
	h.writeJSON(w, http.StatusOK, report.Response{ComparativeReport: text})
}

func (h *handler) handleListOptions(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListOptions"

	options, err := h.service.List(r.Context(), requestUser(r))
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]finance.Option{"options": options})
}

func (h *handler) handleCreateOption(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCreateOption"

	var payload optionPayload
	if !h.decodeJSON(w, r, &payload, op) {
		return
	}

	option, err := h.service.Create(r.Context(), requestUser(r), payload.SourceName, payload.LoanInput)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusCreated, option)
}

func (h *handler) handleGetOption(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetOption"

	option, err := h.service.Get(r.Context(), requestUser(r), r.PathValue("id"))
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, option)
}

func (h *handler) handleUpdateOption(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpdateOption"

	var payload optionPayload
	if !h.decodeJSON(w, r, &payload, op) {
		return
	}

	option, err := h.service.Update(r.Context(), requestUser(r), r.PathValue("id"), payload.SourceName, payload.LoanInput)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, option)
}

func (h *handler) handleDeleteOption(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteOption"

	if err := h.service.Delete(r.Context(), requestUser(r), r.PathValue("id")); err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) handleCompareOptions(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCompareOptions"

	var req compareRequest
	if !h.decodeJSON(w, r, &req, op) {
		return
	}

	text, err := h.service.Compare(r.Context(), requestUser(r), req.IDs)
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, report.Response{ComparativeReport: text})
}

// handleExportOptions writes the user's options as an options: list the CLI can load.
func (h *handler) handleExportOptions(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExportOptions"

	options, err := h.service.List(r.Context(), requestUser(r))
	if err != nil {
		h.respondServiceError(w, err, op)
		return
	}

	yamlBytes, err := yaml.Marshal(exportDocument{Options: options})
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to encode options: %v", err), op)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="loan-compare.yaml"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(yamlBytes); err != nil {
		h.logger.Error("failed to write export", zap.String("op", op), zap.Error(err))
	}
}

func requestUser(r *http.Request) string {
	userID, _ := auth.UserID(r.Context())
	return userID
}
