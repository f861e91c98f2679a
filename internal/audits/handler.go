package audits

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"salesaudit-backend/internal/ingest"
	"salesaudit-backend/internal/share"
	"salesaudit-backend/internal/shared/server/middleware"
	"salesaudit-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the audits service.
type Handler struct {
	Svc    *Service
	Format ingest.Format
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, format ingest.Format) *Handler {
	return &Handler{Svc: svc, Format: format}
}

// RegisterRoutes attaches audit routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/audits", h.startAudit)
	rg.GET("/audits", h.listAudits)
	rg.GET("/audits/:id", h.getAudit)
	rg.DELETE("/audits/:id", h.deleteAudit)
	rg.GET("/audits/:id/verification", h.getVerification)
	rg.GET("/audits/:id/report", h.downloadReport)
	rg.POST("/audits/:id/export", h.exportReport)
	rg.GET("/audits/:id/share", h.shareReport)
}

func (h *Handler) startAudit(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	mimeType := fileHeader.Header.Get("Content-Type")
	table, err := ingest.Load(c.Request.Context(), h.Format, fileHeader.Filename, mimeType, file)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			respond.Error(c, http.StatusBadRequest, "unsupported_format",
				fmt.Sprintf("only %s files are accepted", h.Format), nil)
		case errors.Is(err, ingest.ErrParse):
			respond.Error(c, http.StatusBadRequest, "parse_error", "file could not be parsed", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read file", nil)
		}
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	audit, err := h.Svc.Start(ctx, sessionID, fileHeader.Filename, fileHeader.Size, mimeType, table)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start audit", nil)
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"auditId": audit.ID,
		"status":  audit.Status,
	})
}

func (h *Handler) getAudit(c *gin.Context) {
	audit, ok := h.ownedAudit(c)
	if !ok {
		return
	}

	resp := gin.H{
		"id":        audit.ID,
		"fileName":  audit.FileName,
		"status":    audit.Status,
		"createdAt": audit.CreatedAt,
	}
	if audit.Status == StatusCompleted && audit.Result != nil {
		resp["result"] = audit.Result
		if audit.Verification != nil {
			resp["verificationId"] = audit.Verification.VerificationID
		}
	}
	if audit.Status == StatusFailed || audit.Status == StatusCanceled {
		resp["errorCode"] = audit.ErrorCode
		resp["errorMessage"] = audit.ErrorMessage
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) listAudits(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)

	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit < 0 {
		limit = 0
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	audits, err := h.Svc.List(c.Request.Context(), sessionID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list audits", nil)
		return
	}

	resp := make([]gin.H, 0, len(audits))
	for _, a := range audits {
		item := gin.H{
			"auditId":   a.ID,
			"fileName":  a.FileName,
			"status":    a.Status,
			"createdAt": a.CreatedAt,
		}
		if a.Status == StatusCompleted && a.Result != nil {
			item["hasAnomalies"] = a.Result.HasAnomalies
			item["confidence"] = a.Result.Confidence
		}
		resp = append(resp, item)
	}

	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) deleteAudit(c *gin.Context) {
	sessionID := middleware.SessionIDFromContext(c)
	if _, ok := h.ownedAudit(c); !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), sessionID, c.Param("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "audit not found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete audit", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getVerification(c *gin.Context) {
	audit, ok := h.ownedAudit(c)
	if !ok {
		return
	}
	if audit.Status != StatusCompleted || audit.Verification == nil {
		respond.Error(c, http.StatusConflict, "not_ready", "audit is not completed", nil)
		return
	}

	resp := gin.H{
		"verificationId": audit.Verification.VerificationID,
		"targetUrl":      audit.Verification.TargetURL,
	}
	if len(audit.Verification.QRImage) > 0 {
		resp["qrImage"] = "data:image/png;base64," + base64.StdEncoding.EncodeToString(audit.Verification.QRImage)
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) downloadReport(c *gin.Context) {
	if _, ok := h.ownedAudit(c); !ok {
		return
	}

	doc, fileName, err := h.Svc.Report(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondReportError(c, err, "failed to render report")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (h *Handler) exportReport(c *gin.Context) {
	if _, ok := h.ownedAudit(c); !ok {
		return
	}

	key, fileName, err := h.Svc.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, share.ErrExportUnavailable) {
			respond.Error(c, http.StatusServiceUnavailable, "export_unavailable", "export store is unavailable", nil)
			return
		}
		h.respondReportError(c, err, "failed to export report")
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"storageKey": key,
		"fileName":   fileName,
	})
}

func (h *Handler) shareReport(c *gin.Context) {
	if _, ok := h.ownedAudit(c); !ok {
		return
	}

	channel, err := share.ParseChannel(c.Query("channel"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "channel must be email or gmail", nil)
		return
	}

	link, err := h.Svc.ShareLink(c.Request.Context(), c.Param("id"), channel)
	if err != nil {
		h.respondReportError(c, err, "failed to build share link")
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"channel": string(channel),
		"url":     link,
	})
}

// ownedAudit loads the audit from the path and enforces session ownership.
func (h *Handler) ownedAudit(c *gin.Context) (Audit, bool) {
	sessionID := middleware.SessionIDFromContext(c)
	auditID := c.Param("id")
	if auditID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "audit id is required", nil)
		return Audit{}, false
	}
	audit, err := h.Svc.Get(c.Request.Context(), auditID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "audit not found", nil)
			return Audit{}, false
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch audit", nil)
		return Audit{}, false
	}
	if audit.SessionID != sessionID {
		respond.Error(c, http.StatusForbidden, "access_denied", "audit belongs to another session", nil)
		return Audit{}, false
	}
	return audit, true
}

func (h *Handler) respondReportError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "audit not found", nil)
	case errors.Is(err, ErrNotReady):
		respond.Error(c, http.StatusConflict, "not_ready", "audit is not completed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}
