package handlers

import (
	"errors"
	"net/http"

	"lexguard-backend/models"
	"lexguard-backend/service"

	"github.com/gin-gonic/gin"
)

// DomainHandler handles HTTP requests for legal domains
type DomainHandler struct {
	domains *service.DomainService
}

// NewDomainHandler creates a new domain handler
func NewDomainHandler(domains *service.DomainService) *DomainHandler {
	return &DomainHandler{domains: domains}
}

// RegisterDomain handles POST /api/domains
func (h *DomainHandler) RegisterDomain(c *gin.Context) {
	var domain models.LegalDomain
	if err := c.ShouldBindJSON(&domain); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	if err := h.domains.RegisterDomain(c.Request.Context(), &domain); err != nil {
		status := http.StatusInternalServerError
		code := "REGISTER_FAILED"
		if service.IsValidationError(err) {
			status = http.StatusBadRequest
			code = "INVALID_DOMAIN"
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
		"success": true,
		"domain":  domain,
	})
}

// UpdateDomain handles PUT /api/domains/:code
func (h *DomainHandler) UpdateDomain(c *gin.Context) {
	var domain models.LegalDomain
	if err := c.ShouldBindJSON(&domain); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}
	domain.Code = c.Param("code")

	if err := h.domains.UpdateDomain(c.Request.Context(), &domain); err != nil {
		status := http.StatusInternalServerError
		code := "UPDATE_FAILED"
		if service.IsValidationError(err) {
			status = http.StatusBadRequest
			code = "INVALID_DOMAIN"
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

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"domain":  domain,
	})
}

// GetDomain handles GET /api/domains/:code
func (h *DomainHandler) GetDomain(c *gin.Context) {
	code := c.Param("code")
	domain, err := h.domains.GetDomain(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrDomainNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DOMAIN_NOT_FOUND",
					"message": "No domain registered with code " + code,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FETCH_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"domain":  domain,
	})
}

// ListDomains handles GET /api/domains with an optional active filter
func (h *DomainHandler) ListDomains(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	domains, err := h.domains.ListDomains(c.Request.Context(), activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"domains": domains,
	})
}

// DeleteDomain handles DELETE /api/domains/:code
func (h *DomainHandler) DeleteDomain(c *gin.Context) {
	code := c.Param("code")
	if err := h.domains.DeleteDomain(c.Request.Context(), code); err != nil {
		if errors.Is(err, service.ErrDomainNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DOMAIN_NOT_FOUND",
					"message": "No domain registered with code " + code,
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DELETE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Domain deleted",
	})
}
