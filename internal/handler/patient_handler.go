package handler

import (
	"fmt"
	"net/http"
	"strings"

	"clinic-queue-dashboard/internal/models"
	"clinic-queue-dashboard/internal/service"
	"clinic-queue-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
)

type PatientHandler struct {
	queue QueueService
}

func NewPatientHandler(queue QueueService) *PatientHandler {
	return &PatientHandler{
		queue: queue,
	}
}

// CheckInRequest represents the request body for checking a patient in
type CheckInRequest struct {
	Name            string  `json:"name" binding:"required"`
	Department      string  `json:"department" binding:"required"`
	Phone           *string `json:"phone"`
	AppointmentType *string `json:"appointment_type"`
	Priority        string  `json:"priority" binding:"omitempty,oneof=Regular Priority Emergency"`
	Notes           *string `json:"notes"`
	ScanTime        *string `json:"scan_time"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=waiting called in-progress completed"`
}

type AssignStationRequest struct {
	Station int `json:"station" binding:"required"`
}

// BulkRequest lists the patients a bulk operation applies to
type BulkRequest struct {
	PatientIDs []string `json:"patient_ids" binding:"required,min=1"`
}

type TransferRequest struct {
	PatientIDs []string `json:"patient_ids" binding:"required,min=1"`
	Department string   `json:"department" binding:"required"`
}

// List returns one view of the queue, optionally narrowed by name and status
func (h *PatientHandler) List(c *gin.Context) {
	query := service.PatientQuery{Name: c.Query("q")}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := models.PatientStatus(strings.TrimSpace(s))
			if !status.Valid() {
				respondError(c, &service.ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", status)})
				return
			}
			query.Statuses = append(query.Statuses, status)
		}
	}

	patients, err := h.queue.Patients(service.View(c.DefaultQuery("view", string(service.ViewAll))), query)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.ListResponse(c, "patients", patients, len(patients))
}

// Get returns a single patient
func (h *PatientHandler) Get(c *gin.Context) {
	patient, err := h.queue.Patient(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, patient)
}

// CheckIn adds a patient to the waitlist
func (h *PatientHandler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request. Name and department are required")
		return
	}

	patient, err := h.queue.CheckIn(c.Request.Context(), models.NewPatient{
		Name:            req.Name,
		Department:      req.Department,
		Phone:           req.Phone,
		AppointmentType: req.AppointmentType,
		Priority:        models.Priority(req.Priority),
		Notes:           req.Notes,
		ScanTime:        req.ScanTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, patient)
}

// Remove deletes a patient and their call history
func (h *PatientHandler) Remove(c *gin.Context) {
	if err := h.queue.RemovePatient(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	utils.MessageResponse(c, "Patient removed")
}

// UpdateStatus moves a patient through the queue lifecycle
func (h *PatientHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request. Status must be 'waiting', 'called', 'in-progress' or 'completed'")
		return
	}

	patient, err := h.queue.UpdateStatus(c.Request.Context(), c.Param("id"), models.PatientStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, patient)
}

// AssignStation sends a patient to a station
func (h *PatientHandler) AssignStation(c *gin.Context) {
	var req AssignStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request. Station is required")
		return
	}

	patient, err := h.queue.AssignStation(c.Request.Context(), c.Param("id"), req.Station)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, patient)
}

// ReleaseStation frees the patient's station
func (h *PatientHandler) ReleaseStation(c *gin.Context) {
	patient, err := h.queue.ReleaseStation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, patient)
}

// CompleteAll completes every listed patient in one write
func (h *PatientHandler) CompleteAll(c *gin.Context) {
	var req BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request. patient_ids must list at least one patient")
		return
	}

	n, err := h.queue.CompleteAll(c.Request.Context(), req.PatientIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"updated": n})
}

// Transfer moves every listed patient to another department in one write
func (h *PatientHandler) Transfer(c *gin.Context) {
	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request. patient_ids and department are required")
		return
	}

	n, err := h.queue.TransferPatients(c.Request.Context(), req.PatientIDs, req.Department)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"updated": n})
}
