package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lurnix/course-app/internal/service"
)

// Page sizes above this cap would fan out one storage call per item during
// enrichment, so they are clamped.
const maxPageSize = 50

// CourseHandler serves course and module CRUD.
type CourseHandler struct {
	courseService service.CourseService
}

func NewCourseHandler(courseService service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

func pagination(c *gin.Context, defaultLimit int) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type createCourseRequest struct {
	Title           string `json:"title" binding:"required,min=1"`
	Description     string `json:"description"`
	ThumbnailBase64 string `json:"thumbnailBase64"`
}

func (h *CourseHandler) CreateCourse(c *gin.Context) {
	var req createCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	instructorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from session")
		return
	}

	course, err := h.courseService.CreateCourse(c.Request.Context(), instructorID, req.Title, req.Description, req.ThumbnailBase64)
	if err != nil {
		if errors.Is(err, service.ErrInvalidThumbnail) {
			abortWithError(c, http.StatusBadRequest, "Invalid thumbnail data")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to create course")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": course.ID, "namespaceId": course.NamespaceID})
}

func (h *CourseHandler) ListCourses(c *gin.Context) {
	limit, offset := pagination(c, 10)
	viewerID, _ := getUserIDFromContext(c)

	courses, err := h.courseService.ListCourses(c.Request.Context(), viewerID, limit, offset)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list courses")
		return
	}
	c.JSON(http.StatusOK, courses)
}

func (h *CourseHandler) GetCourse(c *gin.Context) {
	detail, err := h.courseService.GetCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			abortWithError(c, http.StatusNotFound, "Course not found")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to load course")
		return
	}
	c.JSON(http.StatusOK, detail)
}

type updateCourseRequest struct {
	Title       string `json:"title" binding:"required,min=1"`
	Description string `json:"description"`
}

func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	var req updateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	err := h.courseService.UpdateCourse(c.Request.Context(), c.Param("id"), req.Title, req.Description)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			abortWithError(c, http.StatusNotFound, "Course not found")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to update course")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	err := h.courseService.DeleteCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			abortWithError(c, http.StatusNotFound, "Course not found")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to delete course")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type createModuleRequest struct {
	Title string `json:"title" binding:"required,min=1"`
}

func (h *CourseHandler) CreateModule(c *gin.Context) {
	var req createModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	module, err := h.courseService.CreateModule(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		if errors.Is(err, service.ErrCourseNotFound) {
			abortWithError(c, http.StatusNotFound, "Course not found")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to create module")
		return
	}
	c.JSON(http.StatusCreated, module)
}

func (h *CourseHandler) DeleteModule(c *gin.Context) {
	err := h.courseService.DeleteModule(c.Request.Context(), c.Param("moduleId"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrModuleNotFound):
			abortWithError(c, http.StatusNotFound, "Module not found")
		case errors.Is(err, service.ErrStorageDeleteFailed):
			abortWithError(c, http.StatusInternalServerError, "Storage delete failed")
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to delete module")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
