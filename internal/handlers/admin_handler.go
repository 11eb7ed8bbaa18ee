package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/gravadigital/urna-cipa/internal/logger"
	"github.com/gravadigital/urna-cipa/internal/response"
	"github.com/gravadigital/urna-cipa/internal/services"
	"github.com/gravadigital/urna-cipa/internal/storage/evidence"
)

// EvidenceReader reads back stored vote photos
type EvidenceReader interface {
	Get(ctx context.Context, ref string) ([]byte, error)
}

// AdminHandler serves the authenticated admin endpoints
type AdminHandler struct {
	auth       *services.AuthService
	roster     *services.RosterService
	candidates *services.CandidateService
	reports    *services.ReportService
	evidence   EvidenceReader
	rosterPath string
	log        *log.Logger
}

func NewAdminHandler(
	auth *services.AuthService,
	roster *services.RosterService,
	candidates *services.CandidateService,
	reports *services.ReportService,
	photos EvidenceReader,
	rosterPath string,
) *AdminHandler {
	return &AdminHandler{
		auth:       auth,
		roster:     roster,
		candidates: candidates,
		reports:    reports,
		evidence:   photos,
		rosterPath: rosterPath,
		log:        logger.Handler("admin"),
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "Usuário e senha são obrigatórios")
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			response.UnauthorizedError(c, "Credenciais inválidas")
			return
		}
		h.log.Error("login failed", "error", err)
		response.InternalServerError(c, "Erro ao autenticar")
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ImportRoster handles POST /api/admin/roster/import
func (h *AdminHandler) ImportRoster(c *gin.Context) {
	count, err := h.roster.ImportRosterFile(c.Request.Context(), h.rosterPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			response.NotFoundError(c, "Arquivo não encontrado!")
			return
		}
		h.log.Error("roster import failed", "path", h.rosterPath, "error", err)
		response.InternalServerError(c, fmt.Sprintf("Erro no import: %v", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  fmt.Sprintf("%d colaboradores importados com sucesso!", count),
		"imported": count,
	})
}

// RegisterCandidate handles POST /api/admin/candidates
func (h *AdminHandler) RegisterCandidate(c *gin.Context) {
	var req services.RegisterCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequestError(c, "Nome e setor são obrigatórios")
		return
	}

	cand, err := h.candidates.RegisterCandidate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			response.BadRequestError(c, err.Error())
			return
		}
		h.log.Error("candidate registration failed", "error", err)
		response.InternalServerError(c, "Erro ao cadastrar candidato")
		return
	}

	response.SuccessResponse(c, http.StatusCreated, "Candidato cadastrado", cand)
}

// Dashboard handles GET /api/admin/dashboard
func (h *AdminHandler) Dashboard(c *gin.Context) {
	dash, err := h.reports.Dashboard(c.Request.Context())
	if err != nil {
		h.log.Error("dashboard failed", "error", err)
		response.InternalServerError(c, "Erro ao carregar painel")
		return
	}
	c.JSON(http.StatusOK, dash)
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.reports.ComputeStats(c.Request.Context())
	if err != nil {
		h.log.Error("stats failed", "error", err)
		response.InternalServerError(c, "Erro ao calcular estatísticas")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetEvidence handles GET /api/admin/evidence/:ref, serving the photo named
// by a voter log row's photo_path
func (h *AdminHandler) GetEvidence(c *gin.Context) {
	ref := c.Param("ref")
	data, err := h.evidence.Get(c.Request.Context(), ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, evidence.ErrInvalidKey) {
			response.NotFoundError(c, "Foto não encontrada")
			return
		}
		h.log.Error("evidence read failed", "ref", ref, "error", err)
		response.InternalServerError(c, "Erro ao carregar foto")
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}
