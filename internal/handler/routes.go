package handler

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the queue API on r
func RegisterRoutes(r gin.IRouter, queue QueueService) {
	patientHandler := NewPatientHandler(queue)
	displayHandler := NewDisplayHandler(queue)

	r.GET("/departments", displayHandler.Departments)
	r.GET("/stations", displayHandler.Stations)
	r.GET("/recent-calls", displayHandler.RecentCalls)
	r.GET("/stats", displayHandler.Stats)

	patients := r.Group("/patients")
	{
		patients.GET("", patientHandler.List)
		patients.POST("", patientHandler.CheckIn)
		patients.POST("/complete", patientHandler.CompleteAll)
		patients.POST("/transfer", patientHandler.Transfer)
		patients.GET("/:id", patientHandler.Get)
		patients.DELETE("/:id", patientHandler.Remove)
		patients.PATCH("/:id/status", patientHandler.UpdateStatus)
		patients.PUT("/:id/station", patientHandler.AssignStation)
		patients.DELETE("/:id/station", patientHandler.ReleaseStation)
	}

	display := r.Group("/display")
	{
		display.GET("/lobby", displayHandler.Lobby)
		display.GET("/departments/:department", displayHandler.Department)
	}
}
