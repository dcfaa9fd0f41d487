package handler

import (
	"net/http"
	"strconv"

	"clinic-queue-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DisplayHandler serves the read-only screens: lobby, department boards, stations and counters
type DisplayHandler struct {
	queue QueueService
}

func NewDisplayHandler(queue QueueService) *DisplayHandler {
	return &DisplayHandler{
		queue: queue,
	}
}

// Departments returns the active departments
func (h *DisplayHandler) Departments(c *gin.Context) {
	departments := h.queue.Departments()
	utils.ListResponse(c, "departments", departments, len(departments))
}

// Stations returns every station with its occupants
func (h *DisplayHandler) Stations(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"stations": h.queue.Stations(),
		"total":    h.queue.TotalStations(),
	})
}

// RecentCalls returns the recent-calls panel
func (h *DisplayHandler) RecentCalls(c *gin.Context) {
	includeCompleted := false
	if raw := c.Query("include_completed"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "include_completed must be true or false")
			return
		}
		includeCompleted = v
	}

	calls := h.queue.RecentCalls(includeCompleted)
	utils.ListResponse(c, "calls", calls, len(calls))
}

// Lobby returns the waiting-room screen
func (h *DisplayHandler) Lobby(c *gin.Context) {
	utils.SuccessResponse(c, h.queue.Lobby())
}

// Department returns the active patients of one department, given by id or name
func (h *DisplayHandler) Department(c *gin.Context) {
	department, patients, err := h.queue.DepartmentView(c.Param("department"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"department": department,
		"patients":   patients,
		"count":      len(patients),
	})
}

// Stats returns the dashboard header counters
func (h *DisplayHandler) Stats(c *gin.Context) {
	utils.SuccessResponse(c, h.queue.Stats())
}
