package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"lurnix/course-app/internal/service"
	"lurnix/course-app/internal/storage"
)

// MediaHandler serves the upload coordination surface: single-shot material
// and thumbnail uploads, multipart video uploads, bulk deletes, downloads
// and the thumbnail transform pipeline.
type MediaHandler struct {
	mediaService service.MediaService
	imageService service.ImageService
}

func NewMediaHandler(mediaService service.MediaService, imageService service.ImageService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService, imageService: imageService}
}

func (h *MediaHandler) mapMediaError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		abortWithError(c, http.StatusNotFound, "Course not found")
	case errors.Is(err, service.ErrModuleNotFound):
		abortWithError(c, http.StatusNotFound, "Module not found")
	case errors.Is(err, service.ErrStorageDeleteFailed):
		abortWithError(c, http.StatusInternalServerError, "Storage delete failed")
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

type uploadURLRequest struct {
	Name string `json:"name" binding:"required"`
}

func (h *MediaHandler) MaterialUploadURL(c *gin.Context) {
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	target, err := h.mediaService.RequestMaterialUpload(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.mapMediaError(c, err, "Failed to generate upload URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fileId": target.FileID, "uploadUrl": target.UploadURL, "location": "materials"})
}

type saveMaterialRequest struct {
	FileID   string `json:"fileId" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Location string `json:"location"`
}

func (h *MediaHandler) SaveMaterial(c *gin.Context) {
	var req saveMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	material, err := h.mediaService.SaveMaterial(c.Request.Context(), c.Param("id"), req.FileID, req.Name, req.Type, req.Location)
	if err != nil {
		h.mapMediaError(c, err, "Failed to save material")
		return
	}
	c.JSON(http.StatusCreated, material)
}

func (h *MediaHandler) ListMaterials(c *gin.Context) {
	materials, err := h.mediaService.ListMaterials(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.mapMediaError(c, err, "Failed to list materials")
		return
	}
	c.JSON(http.StatusOK, materials)
}

type bulkDeleteMaterialsRequest struct {
	MaterialIDs []string `json:"materialIds" binding:"required,min=1"`
}

func (h *MediaHandler) BulkDeleteMaterials(c *gin.Context) {
	var req bulkDeleteMaterialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := h.mediaService.BulkDeleteMaterials(c.Request.Context(), c.Param("id"), req.MaterialIDs); err != nil {
		h.mapMediaError(c, err, "Failed to delete materials")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *MediaHandler) ThumbnailUploadURL(c *gin.Context) {
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	target, err := h.mediaService.RequestThumbnailUpload(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		h.mapMediaError(c, err, "Failed to generate upload URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fileId": target.FileID, "uploadUrl": target.UploadURL})
}

type saveThumbnailRequest struct {
	FileID string `json:"fileId" binding:"required"`
	Name   string `json:"name" binding:"required"`
}

func (h *MediaHandler) SaveThumbnail(c *gin.Context) {
	var req saveThumbnailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	thumbnail, err := h.mediaService.SaveThumbnail(c.Request.Context(), c.Param("id"), req.FileID, req.Name)
	if err != nil {
		h.mapMediaError(c, err, "Failed to save thumbnail")
		return
	}
	c.JSON(http.StatusCreated, thumbnail)
}

func (h *MediaHandler) ListThumbnails(c *gin.Context) {
	thumbnails, err := h.mediaService.ListThumbnails(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.mapMediaError(c, err, "Failed to list thumbnails")
		return
	}
	c.JSON(http.StatusOK, thumbnails)
}

func (h *MediaHandler) DeleteThumbnail(c *gin.Context) {
	// File ids contain slashes, so the route binds them as a wildcard.
	fileID := strings.TrimPrefix(c.Param("fileId"), "/")
	if err := h.mediaService.DeleteThumbnail(c.Request.Context(), c.Param("id"), fileID); err != nil {
		h.mapMediaError(c, err, "Failed to delete thumbnail")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *MediaHandler) StagingUploadURL(c *gin.Context) {
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	target, err := h.mediaService.RequestStagingUpload(c.Request.Context(), req.Name)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate upload URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"fileId": target.FileID, "uploadUrl": target.UploadURL})
}

type startVideoUploadRequest struct {
	Name string `json:"name" binding:"required"`
	Size int64  `json:"size" binding:"required,gt=0"`
}

func (h *MediaHandler) StartVideoUpload(c *gin.Context) {
	var req startVideoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	upload, err := h.mediaService.StartVideoUpload(c.Request.Context(), c.Param("moduleId"), req.Name, req.Size)
	if err != nil {
		h.mapMediaError(c, err, "Failed to start upload")
		return
	}
	c.JSON(http.StatusOK, upload)
}

type completedPartRequest struct {
	PartNumber int32  `json:"partNumber" binding:"required,gt=0"`
	ETag       string `json:"eTag" binding:"required"`
}

type completeVideoUploadRequest struct {
	FileID      string                 `json:"fileId" binding:"required"`
	UploadID    string                 `json:"uploadId" binding:"required"`
	Parts       []completedPartRequest `json:"parts" binding:"required,min=1,dive"`
	Title       string                 `json:"title" binding:"required"`
	Description string                 `json:"description"`
	Duration    int                    `json:"duration"`
}

func (h *MediaHandler) CompleteVideoUpload(c *gin.Context) {
	var req completeVideoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	parts := make([]storage.CompletedPart, 0, len(req.Parts))
	for _, p := range req.Parts {
		parts = append(parts, storage.CompletedPart{PartNumber: p.PartNumber, ETag: p.ETag})
	}

	video, err := h.mediaService.CompleteVideoUpload(c.Request.Context(), c.Param("moduleId"), service.CompleteVideoInput{
		FileID:      req.FileID,
		UploadID:    req.UploadID,
		Parts:       parts,
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
	})
	if err != nil {
		if errors.Is(err, service.ErrNamespaceMismatch) {
			abortWithError(c, http.StatusForbidden, "File does not belong to this course")
			return
		}
		if errors.Is(err, service.ErrAssemblyFailed) {
			abortWithError(c, http.StatusInternalServerError, "Upload assembly failed")
			return
		}
		h.mapMediaError(c, err, "Failed to complete upload")
		return
	}
	c.JSON(http.StatusCreated, video)
}

type bulkDeleteVideosRequest struct {
	FileIDs []string `json:"fileIds" binding:"required,min=1"`
}

func (h *MediaHandler) BulkDeleteVideos(c *gin.Context) {
	var req bulkDeleteVideosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := h.mediaService.BulkDeleteVideos(c.Request.Context(), c.Param("moduleId"), req.FileIDs); err != nil {
		h.mapMediaError(c, err, "Failed to delete videos")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *MediaHandler) ListVideos(c *gin.Context) {
	instructorID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from session")
		return
	}
	limit, offset := pagination(c, 20)

	videos, err := h.mediaService.ListVideos(c.Request.Context(), instructorID, c.Query("query"), limit, offset)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list videos")
		return
	}
	c.JSON(http.StatusOK, videos)
}

func (h *MediaHandler) VideoDownloadURL(c *gin.Context) {
	fileID := strings.TrimPrefix(c.Param("fileId"), "/")
	url, err := h.mediaService.VideoDownloadURL(c.Request.Context(), fileID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to generate download URL")
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}

type transformRequest struct {
	FileID string `json:"fileId" binding:"required"`
	service.TransformOptions
}

// Transform runs the thumbnail transform pipeline against a stored object.
func (h *MediaHandler) Transform(c *gin.Context) {
	var req transformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if err := h.imageService.Apply(c.Request.Context(), req.FileID, req.TransformOptions); err != nil {
		if errors.Is(err, service.ErrUnsupportedImage) {
			abortWithError(c, http.StatusBadRequest, "Unsupported image format")
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Image transformation failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
