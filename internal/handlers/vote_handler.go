package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/urna-cipa/internal/domain/candidate"
	"github.com/gravadigital/urna-cipa/internal/domain/employee"
	"github.com/gravadigital/urna-cipa/internal/domain/vote"
	"github.com/gravadigital/urna-cipa/internal/logger"
	"github.com/gravadigital/urna-cipa/internal/response"
	"github.com/gravadigital/urna-cipa/internal/services"
)

// VoteNotifier is told about every committed vote
type VoteNotifier interface {
	Notify()
}

// VoteHandler serves the kiosk endpoints
type VoteHandler struct {
	voting     *vote.VotingService
	candidates *services.CandidateService
	roster     *services.RosterService
	notifier   VoteNotifier
	log        *log.Logger
}

func NewVoteHandler(voting *vote.VotingService, candidates *services.CandidateService, roster *services.RosterService) *VoteHandler {
	return &VoteHandler{
		voting:     voting,
		candidates: candidates,
		roster:     roster,
		log:        logger.Handler("vote"),
	}
}

// WithNotifier registers a listener for committed votes
func (h *VoteHandler) WithNotifier(n VoteNotifier) *VoteHandler {
	h.notifier = n
	return h
}

// BallotNumber accepts both 23 and "23"; the kiosk sends the typed digits as a string.
type BallotNumber int

func (n *BallotNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return errors.New("number must be numeric")
		}
		*n = BallotNumber(v)
		return nil
	}
	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = BallotNumber(v)
	return nil
}

type CastVoteRequest struct {
	CPF    string        `json:"cpf"`
	Number *BallotNumber `json:"number"`
	Photo  string        `json:"photo"`
}

type CastVoteResponse struct {
	Success       bool   `json:"success"`
	CandidateName string `json:"candidate_name"`
}

// voteBodySlack covers the JSON framing, the CPF and the data URI header.
const voteBodySlack = 64 << 10

// maxVoteBodySize is the largest request body that can still carry a photo of
// maxPhotoSize decoded bytes. 0 means unlimited.
func maxVoteBodySize(maxPhotoSize int64) int64 {
	if maxPhotoSize <= 0 {
		return 0
	}
	return (maxPhotoSize+2)/3*4 + voteBodySlack
}

// CastVote handles POST /api/vote
func (h *VoteHandler) CastVote(c *gin.Context) {
	if limit := maxVoteBodySize(h.voting.MaxPhotoSize()); limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.log.Warn("vote payload too large", "limit", tooLarge.Limit)
			response.KindError(c, http.StatusBadRequest, string(vote.KindInvalidInput), "Foto inválida")
			return
		}
		h.log.Debug("invalid vote payload", "error", err)
		response.KindError(c, http.StatusBadRequest, string(vote.KindInvalidInput), "Dados incompletos")
		return
	}

	var number *int
	if req.Number != nil {
		n := int(*req.Number)
		number = &n
	}

	result, err := h.voting.CastVote(c.Request.Context(), vote.CastVoteRequest{
		CPF:    req.CPF,
		Number: number,
		Photo:  req.Photo,
	})
	if err != nil {
		verr := vote.AsError(err)
		response.KindError(c, verr.HTTPStatus(), string(verr.Kind), verr.Message)
		return
	}

	if h.notifier != nil {
		h.notifier.Notify()
	}

	c.JSON(http.StatusOK, CastVoteResponse{
		Success:       true,
		CandidateName: result.CandidateName,
	})
}

type EligibilityResponse struct {
	Allowed bool   `json:"allowed"`
	Message string `json:"message"`
	Name    string `json:"name,omitempty"`
}

// CheckEligibility handles GET /api/eligibility?cpf= and GET /api/check-cpf/:cpf
func (h *VoteHandler) CheckEligibility(c *gin.Context) {
	cpf := c.Param("cpf")
	if cpf == "" {
		cpf = c.Query("cpf")
	}

	result, err := h.voting.CheckEligibility(c.Request.Context(), cpf)
	if err != nil {
		h.log.Error("eligibility check failed", "error", err)
		response.InternalServerError(c, "Erro ao verificar CPF")
		return
	}

	c.JSON(http.StatusOK, EligibilityResponse{
		Allowed: result.Allowed,
		Message: result.Message,
		Name:    result.Name,
	})
}

type CandidateInfoResponse struct {
	Name       string `json:"name"`
	Department string `json:"department"`
}

// GetCandidate handles GET /api/candidates/:number and GET /api/candidate?number=
func (h *VoteHandler) GetCandidate(c *gin.Context) {
	raw := c.Param("number")
	if raw == "" {
		raw = c.Query("number")
	}

	number, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		response.NotFoundError(c, "Não encontrado")
		return
	}

	cand, err := h.candidates.GetByNumber(c.Request.Context(), number)
	if err != nil {
		if errors.Is(err, candidate.ErrNotFound) {
			response.NotFoundError(c, "Não encontrado")
			return
		}
		h.log.Error("candidate lookup failed", "number", number, "error", err)
		response.InternalServerError(c, "Erro ao consultar candidato")
		return
	}

	c.JSON(http.StatusOK, CandidateInfoResponse{
		Name:       cand.Name,
		Department: cand.Department,
	})
}

type EmployeeInfoResponse struct {
	Found      bool   `json:"found"`
	Name       string `json:"name,omitempty"`
	Department string `json:"department,omitempty"`
}

// GetEmployee handles GET /api/employees/:cpf
func (h *VoteHandler) GetEmployee(c *gin.Context) {
	emp, err := h.roster.GetEmployee(c.Request.Context(), c.Param("cpf"))
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			c.JSON(http.StatusOK, EmployeeInfoResponse{Found: false})
			return
		}
		h.log.Error("employee lookup failed", "error", err)
		response.InternalServerError(c, "Erro ao consultar colaborador")
		return
	}

	c.JSON(http.StatusOK, EmployeeInfoResponse{
		Found:      true,
		Name:       emp.Name,
		Department: emp.Department,
	})
}
