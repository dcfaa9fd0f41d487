package handler

import (
	"context"
	"errors"
	"net/http"

	"clinic-queue-dashboard/internal/models"
	"clinic-queue-dashboard/internal/service"
	"clinic-queue-dashboard/pkg/utils"

	"github.com/gin-gonic/gin"
)

// QueueService is the part of service.QueueService the HTTP layer uses
type QueueService interface {
	CheckIn(ctx context.Context, input models.NewPatient) (models.Patient, error)
	UpdateStatus(ctx context.Context, patientID string, status models.PatientStatus) (models.Patient, error)
	RemovePatient(ctx context.Context, patientID string) error
	AssignStation(ctx context.Context, patientID string, stationID int) (models.Patient, error)
	ReleaseStation(ctx context.Context, patientID string) (models.Patient, error)
	CompleteAll(ctx context.Context, patientIDs []string) (int, error)
	TransferPatients(ctx context.Context, patientIDs []string, target string) (int, error)

	Patients(view service.View, query service.PatientQuery) ([]models.Patient, error)
	Patient(patientID string) (models.Patient, error)
	Departments() []models.Department
	DepartmentView(ref string) (models.Department, []models.Patient, error)
	Stations() []service.StationView
	TotalStations() int
	RecentCalls(includeCompleted bool) []service.RecentCallView
	Lobby() service.LobbyView
	Stats() service.QueueStats
}

// respondError maps queue errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	var (
		notFound   *service.NotFoundError
		department *service.DepartmentNotFoundError
		transition *service.InvalidTransitionError
		occupied   *service.StationOccupiedError
		station    *service.InvalidStationError
		validation *service.ValidationError
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &department):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.As(err, &transition), errors.As(err, &occupied):
		utils.ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.As(err, &station), errors.As(err, &validation):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
	case service.IsPersistence(err):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Queue store is unavailable, please retry")
	default:
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}
