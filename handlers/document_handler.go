package handlers

import (
	"errors"
	"net/http"

	"lexguard-backend/models"
	"lexguard-backend/service"

	"github.com/gin-gonic/gin"
)

// DocumentHandler handles HTTP requests for legal documents
type DocumentHandler struct {
	hierarchy   *service.HierarchyService
	impact      *service.ImpactAnalyzer
	crossDomain *service.CrossDomainAgent
	contracts   *service.ContractService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(
	hierarchy *service.HierarchyService,
	impact *service.ImpactAnalyzer,
	crossDomain *service.CrossDomainAgent,
	contracts *service.ContractService,
) *DocumentHandler {
	return &DocumentHandler{
		hierarchy:   hierarchy,
		impact:      impact,
		crossDomain: crossDomain,
		contracts:   contracts,
	}
}

// RegisterDocumentRequest represents the request body for registering a
// document
type RegisterDocumentRequest struct {
	ID             string `json:"id" binding:"required"`
	Title          string `json:"title"`
	Content        string `json:"content" binding:"required"`
	HierarchyLevel string `json:"hierarchy_level" binding:"required"`
	DomainCode     string `json:"domain_code"`
}

// RegisterDocument handles POST /api/documents
func (h *DocumentHandler) RegisterDocument(c *gin.Context) {
	var req RegisterDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	level, err := models.ParseHierarchyLevel(req.HierarchyLevel)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_HIERARCHY_LEVEL",
				"message": err.Error(),
			},
		})
		return
	}

	doc := &models.LegalDocument{
		ID:             req.ID,
		Title:          req.Title,
		Content:        req.Content,
		HierarchyLevel: level,
		DomainCode:     req.DomainCode,
	}

	report, err := h.hierarchy.AddDocument(c.Request.Context(), doc)
	if err != nil {
		status := http.StatusInternalServerError
		code := "REGISTER_FAILED"
		if service.IsValidationError(err) {
			status = http.StatusBadRequest
			code = "INVALID_DOCUMENT"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"document": doc,
		"report":   report,
	})
}

// UpdateDocumentRequest represents the request body for a content update
type UpdateDocumentRequest struct {
	Content string `json:"content" binding:"required"`
}

// UpdateDocument handles PUT /api/documents/:id
func (h *DocumentHandler) UpdateDocument(c *gin.Context) {
	var req UpdateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	id := c.Param("id")
	report, err := h.hierarchy.UpdateDocument(c.Request.Context(), id, req.Content)
	if err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DOCUMENT_NOT_FOUND",
					"message": "No document registered with id " + id,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	doc, _ := h.hierarchy.GetDocument(id)
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"document": doc,
		"report":   report,
	})
}

// GetDocument handles GET /api/documents/:id
func (h *DocumentHandler) GetDocument(c *gin.Context) {
	id := c.Param("id")
	doc, ok := h.hierarchy.GetDocument(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOCUMENT_NOT_FOUND",
				"message": "No document registered with id " + id,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"document": doc,
	})
}

// ListDocuments handles GET /api/documents with optional level and
// valid filters
func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	if levelName := c.Query("level"); levelName != "" {
		level, err := models.ParseHierarchyLevel(levelName)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_HIERARCHY_LEVEL",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"documents": h.hierarchy.GetDocumentsByLevel(level),
		})
		return
	}

	if c.Query("valid") == "true" {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"documents": h.hierarchy.GetValidDocuments(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"documents": h.hierarchy.GetAllDocuments(),
	})
}

// CheckConflicts handles GET /api/documents/:id/conflicts
func (h *DocumentHandler) CheckConflicts(c *gin.Context) {
	id := c.Param("id")
	doc, ok := h.hierarchy.GetDocument(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOCUMENT_NOT_FOUND",
				"message": "No document registered with id " + id,
			},
		})
		return
	}

	report, err := h.hierarchy.CheckConflicts(doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CONFLICT_CHECK_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"report":  report,
	})
}

// AnalyzeImpact handles GET /api/documents/:id/impact. With
// ?flag_contracts=true the impacted documents are also mapped to
// contracts requiring review.
func (h *DocumentHandler) AnalyzeImpact(c *gin.Context) {
	id := c.Param("id")
	chains, err := h.impact.AnalyzeImpact(c.Request.Context(), id)
	if err != nil {
		var fetchErr *service.CitationFetchError
		if errors.As(err, &fetchErr) {
			c.JSON(http.StatusBadGateway, gin.H{
				"success": false,
				"error": gin.H{
					"code":      "CITATION_FETCH_FAILED",
					"message":   err.Error(),
					"retryable": fetchErr.Retryable,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "IMPACT_ANALYSIS_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	response := gin.H{
		"success": true,
		"chains":  chains,
	}

	if c.Query("flag_contracts") == "true" && h.contracts != nil {
		reviews, err := h.contracts.FlagImpactedContracts(c.Request.Context(), chains)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CONTRACT_FLAGGING_FAILED",
					"message": err.Error(),
				},
			})
			return
		}
		response["contract_reviews"] = reviews
	}

	c.JSON(http.StatusOK, response)
}

// CrossDomainImpact handles POST /api/documents/:id/cross-domain-impact.
// The caller identity comes from the X-API-Key header and is checked by
// the agent's security gate.
func (h *DocumentHandler) CrossDomainImpact(c *gin.Context) {
	id := c.Param("id")
	doc, ok := h.hierarchy.GetDocument(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DOCUMENT_NOT_FOUND",
				"message": "No document registered with id " + id,
			},
		})
		return
	}

	result, err := h.crossDomain.Execute(c.Request.Context(), &service.ProcessContext{
		Document: doc,
		APIKey:   c.GetHeader("X-API-Key"),
	})
	if err != nil {
		var secErr *service.SecurityError
		if errors.As(err, &secErr) {
			status := http.StatusForbidden
			if secErr.Kind == service.SecurityAuthRequired {
				status = http.StatusUnauthorized
			}
			c.JSON(status, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "SECURITY_CHECK_FAILED",
					"message": err.Error(),
				},
			})
			return
		}
		if errors.Is(err, service.ErrAgentDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "AGENT_DISABLED",
					"message": err.Error(),
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CROSS_DOMAIN_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result":  result,
	})
}
