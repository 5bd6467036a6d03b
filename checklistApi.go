package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/checklist_backend/config"
	"bitbucket.org/mmdatafocus/checklist_backend/models"
	"bitbucket.org/mmdatafocus/checklist_backend/models/reports"
	"bitbucket.org/mmdatafocus/checklist_backend/utils"
	"bitbucket.org/mmdatafocus/checklist_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Mutations for the same check date are serialized across instances under
// this lock type.
const validationLockType = "checklist:validate"

func bindJSON(c *gin.Context, req interface{}) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "fields": utils.ProcessValidationErrors(fieldErrs)})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	return false
}

func checkDateFromQuery(c *gin.Context) (time.Time, bool) {
	value := c.Query("date")
	if strings.TrimSpace(value) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return time.Time{}, false
	}
	checkDate, err := utils.ParseCheckDate(value, config.TimeZone())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return time.Time{}, false
	}
	return checkDate, true
}

func optionalQuery(c *gin.Context, name string) *string {
	value := strings.TrimSpace(c.Query(name))
	if value == "" {
		return nil
	}
	return &value
}

// respondError maps workflow errors to HTTP statuses. Only unexpected
// failures are logged; taxonomy errors already carry their own message.
func respondError(c *gin.Context, logger *logrus.Logger, functionName string, step string, data interface{}, err error) {
	switch {
	case utils.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case utils.IsBadRequest(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case utils.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		config.LogError(logger, "checklistApi.go", functionName, step, data, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// runWithDateLock serializes a checklist mutation for one check date and runs
// it inside a single transaction.
func runWithDateLock(c *gin.Context, functionName string, checkDate time.Time, fn func(tx *gorm.DB) error) error {
	lock, err := utils.ObtainDateLock(c.Request.Context(), validationLockType, checkDate, "checklistApi.go", functionName)
	if err != nil {
		return err
	}
	if lock != nil {
		defer lock.Release(context.Background())
	}

	db := config.GetDB()
	return db.WithContext(c.Request.Context()).Transaction(fn)
}

func checklistSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		checkDate, ok := checkDateFromQuery(c)
		if !ok {
			return
		}
		errorsOnly := c.Query("errors_only") == "true"

		summary, err := workflow.GetChecklistSummary(c.Request.Context(), checkDate, optionalQuery(c, "application"), optionalQuery(c, "owner"), errorsOnly)
		if err != nil {
			respondError(c, logger, "checklistSummaryHandler", "GetChecklistSummary", c.Request.URL.RawQuery, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

func checklistDetailsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		checkDate, ok := checkDateFromQuery(c)
		if !ok {
			return
		}

		var resultFilter *models.ResultFilter
		if value := c.Query("result"); value != "" {
			parsed, err := models.ParseResultFilter(value)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			resultFilter = &parsed
		}

		var hostStatus *models.HostStatus
		if value := c.Query("status"); value != "" {
			parsed, err := models.ParseHostStatus(value)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			hostStatus = &parsed
		}

		details, err := workflow.GetChecklistDetails(c.Request.Context(), checkDate, resultFilter, hostStatus, optionalQuery(c, "application"), optionalQuery(c, "owner"))
		if err != nil {
			respondError(c, logger, "checklistDetailsHandler", "GetChecklistDetails", c.Request.URL.RawQuery, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"details": details})
	}
}

func hostDiffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		hostname := c.Param("hostname")
		checkDate, ok := checkDateFromQuery(c)
		if !ok {
			return
		}

		diffs, err := workflow.GetHostDiff(c.Request.Context(), hostname, checkDate)
		if err != nil {
			respondError(c, logger, "hostDiffHandler", "GetHostDiff", hostname, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"hostname": hostname,
			"date":     checkDate.Format("2006-01-02"),
			"diffs":    diffs,
		})
	}
}

func validationRecordsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		checkDate, ok := checkDateFromQuery(c)
		if !ok {
			return
		}

		records, err := models.GetValidationRecords(c.Request.Context(), checkDate, optionalQuery(c, "application"), optionalQuery(c, "owner"))
		if err != nil {
			respondError(c, logger, "validationRecordsHandler", "GetValidationRecords", c.Request.URL.RawQuery, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"validations": records})
	}
}

func getSignOffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		checkDate, ok := checkDateFromQuery(c)
		if !ok {
			return
		}

		signOff, err := models.GetSignOff(c.Request.Context(), checkDate)
		if err != nil {
			respondError(c, logger, "getSignOffHandler", "GetSignOff", c.Request.URL.RawQuery, err)
			return
		}
		c.JSON(http.StatusOK, signOff)
	}
}

type validateHostRequest struct {
	Hostname string `json:"hostname" binding:"required"`
	Date     string `json:"date" binding:"required"`
	Comment  string `json:"comment"`
}

func validateHostHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req validateHostRequest
		if !bindJSON(c, &req) {
			return
		}
		checkDate, err := utils.ParseCheckDate(req.Date, config.TimeZone())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		err = runWithDateLock(c, "validateHostHandler", checkDate, func(tx *gorm.DB) error {
			return workflow.ValidateHost(tx, logger, req.Hostname, checkDate, req.Comment, now)
		})
		if err != nil {
			respondError(c, logger, "validateHostHandler", "ValidateHost", req, err)
			return
		}

		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"hostname":       req.Hostname,
			"date":           req.Date,
			"validated":      true,
			"correlation_id": cid,
		})
	}
}

type undoValidateHostRequest struct {
	Hostname string `json:"hostname" binding:"required"`
	Date     string `json:"date" binding:"required"`
}

func undoValidateHostHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req undoValidateHostRequest
		if !bindJSON(c, &req) {
			return
		}
		checkDate, err := utils.ParseCheckDate(req.Date, config.TimeZone())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		err = runWithDateLock(c, "undoValidateHostHandler", checkDate, func(tx *gorm.DB) error {
			return workflow.UndoValidateHost(tx, logger, req.Hostname, checkDate, now)
		})
		if err != nil {
			respondError(c, logger, "undoValidateHostHandler", "UndoValidateHost", req, err)
			return
		}

		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"hostname":       req.Hostname,
			"date":           req.Date,
			"validated":      false,
			"correlation_id": cid,
		})
	}
}

type validateAllFailingRequest struct {
	Date        string  `json:"date" binding:"required"`
	Application string  `json:"application"`
	Owner       *string `json:"owner"`
	Comment     string  `json:"comment"`
}

func validateAllFailingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req validateAllFailingRequest
		if !bindJSON(c, &req) {
			return
		}
		checkDate, err := utils.ParseCheckDate(req.Date, config.TimeZone())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var validated int
		now := time.Now()
		err = runWithDateLock(c, "validateAllFailingHandler", checkDate, func(tx *gorm.DB) error {
			validated, err = workflow.ValidateAllFailing(tx, logger, checkDate, req.Application, req.Owner, req.Comment, now)
			return err
		})
		if err != nil {
			respondError(c, logger, "validateAllFailingHandler", "ValidateAllFailing", req, err)
			return
		}

		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"date":            req.Date,
			"validated_count": validated,
			"correlation_id":  cid,
		})
	}
}

type validateSelectedRequest struct {
	Date      string   `json:"date" binding:"required"`
	Hostnames []string `json:"hostnames"`
	Comment   string   `json:"comment"`
}

func validateSelectedHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req validateSelectedRequest
		if !bindJSON(c, &req) {
			return
		}
		checkDate, err := utils.ParseCheckDate(req.Date, config.TimeZone())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var validated int
		now := time.Now()
		err = runWithDateLock(c, "validateSelectedHandler", checkDate, func(tx *gorm.DB) error {
			validated, err = workflow.ValidateSelected(tx, logger, checkDate, req.Hostnames, req.Comment, now)
			return err
		})
		if err != nil {
			respondError(c, logger, "validateSelectedHandler", "ValidateSelected", req, err)
			return
		}

		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"date":            req.Date,
			"validated_count": validated,
			"correlation_id":  cid,
		})
	}
}

type validateGroupsRequest struct {
	Date    string                     `json:"date" binding:"required"`
	Groups  []models.ChecklistGroupKey `json:"groups" binding:"dive"`
	Comment string                     `json:"comment"`
}

func validateGroupsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req validateGroupsRequest
		if !bindJSON(c, &req) {
			return
		}
		checkDate, err := utils.ParseCheckDate(req.Date, config.TimeZone())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var validated int
		now := time.Now()
		err = runWithDateLock(c, "validateGroupsHandler", checkDate, func(tx *gorm.DB) error {
			validated, err = workflow.ValidateGroups(tx, logger, checkDate, req.Groups, req.Comment, now)
			return err
		})
		if err != nil {
			respondError(c, logger, "validateGroupsHandler", "ValidateGroups", req, err)
			return
		}

		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"date":            req.Date,
			"validated_count": validated,
			"correlation_id":  cid,
		})
	}
}

type signOffRequest struct {
	Date    string `json:"date" binding:"required"`
	Comment string `json:"comment"`
}

func signOffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req signOffRequest
		if !bindJSON(c, &req) {
			return
		}
		checkDate, err := utils.ParseCheckDate(req.Date, config.TimeZone())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		now := time.Now()
		err = runWithDateLock(c, "signOffHandler", checkDate, func(tx *gorm.DB) error {
			return workflow.SignOffChecklist(tx, logger, checkDate, req.Comment, now)
		})
		if err != nil {
			respondError(c, logger, "signOffHandler", "SignOffChecklist", req, err)
			return
		}

		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"date":           req.Date,
			"signed_off":     true,
			"correlation_id": cid,
		})
	}
}

type undoSignOffRequest struct {
	Date string `json:"date" binding:"required"`
}

func undoSignOffHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		var req undoSignOffRequest
		if !bindJSON(c, &req) {
			return
		}
		checkDate, err := utils.ParseCheckDate(req.Date, config.TimeZone())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		err = runWithDateLock(c, "undoSignOffHandler", checkDate, func(tx *gorm.DB) error {
			return workflow.UndoSignOff(tx, logger, checkDate)
		})
		if err != nil {
			respondError(c, logger, "undoSignOffHandler", "UndoSignOff", req, err)
			return
		}

		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{
			"date":           req.Date,
			"signed_off":     false,
			"correlation_id": cid,
		})
	}
}

func checklistReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		checkDate, ok := checkDateFromQuery(c)
		if !ok {
			return
		}

		err := reports.ExportChecklistReport(c.Request.Context(), c.Writer, checkDate, optionalQuery(c, "application"), optionalQuery(c, "owner"))
		if err != nil {
			// Headers go out before the workbook body; once streaming has
			// started the only option left is to log.
			if c.Writer.Written() {
				config.LogError(logger, "checklistApi.go", "checklistReportHandler", "Write workbook", c.Request.URL.RawQuery, err)
				return
			}
			respondError(c, logger, "checklistReportHandler", "ExportChecklistReport", c.Request.URL.RawQuery, err)
		}
	}
}
