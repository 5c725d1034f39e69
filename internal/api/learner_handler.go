package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lurnix/course-app/internal/repository"
	"lurnix/course-app/internal/service"
)

// LearnerHandler covers the viewer-side endpoints: enrollments, favorites
// and watch progress.
type LearnerHandler struct {
	learnerService service.LearnerService
}

func NewLearnerHandler(learnerService service.LearnerService) *LearnerHandler {
	return &LearnerHandler{learnerService: learnerService}
}

func (h *LearnerHandler) Enroll(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from session")
		return
	}

	if err := h.learnerService.Enroll(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			abortWithError(c, http.StatusNotFound, "Course not found")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to enroll")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type favoriteRequest struct {
	Action string `json:"action" binding:"required"`
}

func (h *LearnerHandler) SetFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from session")
		return
	}

	if err := h.learnerService.SetFavorite(c.Request.Context(), userID, c.Param("id"), req.Action); err != nil {
		if errors.Is(err, service.ErrInvalidFavoriteAction) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to update favorite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type progressRequest struct {
	WatchedSeconds int  `json:"watchedSeconds" binding:"min=0"`
	Completed      bool `json:"completed"`
}

func (h *LearnerHandler) RecordProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from session")
		return
	}

	if err := h.learnerService.RecordProgress(c.Request.Context(), userID, c.Param("videoId"), req.WatchedSeconds, req.Completed); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to record progress")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *LearnerHandler) GetProgress(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from session")
		return
	}

	progress, err := h.learnerService.GetProgress(c.Request.Context(), userID, c.Param("videoId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "No progress recorded")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to get progress")
		return
	}
	c.JSON(http.StatusOK, progress)
}
