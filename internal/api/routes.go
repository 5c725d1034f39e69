package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lurnix/course-app/internal/auth"
	"lurnix/course-app/internal/domain"
	"lurnix/course-app/internal/service"
)

func SetupRoutes(
	router *gin.Engine,
	resolver auth.SessionResolver,
	provider auth.DelegatedProvider,
	codec *auth.TokenCodec,
	authService service.AuthService,
	courseService service.CourseService,
	mediaService service.MediaService,
	imageService service.ImageService,
	learnerService service.LearnerService,
) {
	authHandler := NewAuthHandler(authService, resolver, provider, codec)
	courseHandler := NewCourseHandler(courseService)
	mediaHandler := NewMediaHandler(mediaService, imageService)
	learnerHandler := NewLearnerHandler(learnerService)

	sessionMiddleware := SessionMiddleware(resolver)
	instructorOnly := RoleMiddleware(domain.RoleInstructor, domain.RoleAdmin)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.Signup)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", authHandler.Logout)
			authGroup.GET("/oidc/login", authHandler.OIDCLogin)
			authGroup.GET("/oidc/callback", authHandler.OIDCCallback)
		}
	}

	protected := apiV1.Group("")
	protected.Use(sessionMiddleware)
	{
		protected.GET("/me", authHandler.Me)
		protected.PUT("/me/profile", authHandler.UpdateProfile)

		// --- Course Catalog ---
		courseGroup := protected.Group("/courses")
		{
			courseGroup.GET("", courseHandler.ListCourses)
			courseGroup.GET("/:id", courseHandler.GetCourse)
			courseGroup.POST("", instructorOnly, courseHandler.CreateCourse)
			courseGroup.PUT("/:id", instructorOnly, courseHandler.UpdateCourse)
			courseGroup.DELETE("/:id", instructorOnly, courseHandler.DeleteCourse)

			courseGroup.POST("/:id/modules", instructorOnly, courseHandler.CreateModule)

			// --- Materials ---
			courseGroup.POST("/:id/materials/upload-url", instructorOnly, mediaHandler.MaterialUploadURL)
			courseGroup.POST("/:id/materials", instructorOnly, mediaHandler.SaveMaterial)
			courseGroup.GET("/:id/materials", mediaHandler.ListMaterials)
			courseGroup.POST("/:id/materials/bulk-delete", instructorOnly, mediaHandler.BulkDeleteMaterials)

			// --- Thumbnails ---
			courseGroup.POST("/:id/thumbnails/upload-url", instructorOnly, mediaHandler.ThumbnailUploadURL)
			courseGroup.POST("/:id/thumbnails", instructorOnly, mediaHandler.SaveThumbnail)
			courseGroup.GET("/:id/thumbnails", mediaHandler.ListThumbnails)
			courseGroup.DELETE("/:id/thumbnails/*fileId", instructorOnly, mediaHandler.DeleteThumbnail)

			// --- Learner State ---
			courseGroup.POST("/:id/enroll", learnerHandler.Enroll)
			courseGroup.POST("/:id/favorite", learnerHandler.SetFavorite)
		}

		moduleGroup := protected.Group("/modules")
		{
			moduleGroup.DELETE("/:moduleId", instructorOnly, courseHandler.DeleteModule)

			// --- Multipart Video Uploads ---
			moduleGroup.POST("/:moduleId/videos/start", instructorOnly, mediaHandler.StartVideoUpload)
			moduleGroup.POST("/:moduleId/videos/complete", instructorOnly, mediaHandler.CompleteVideoUpload)
			moduleGroup.POST("/:moduleId/videos/bulk-delete", instructorOnly, mediaHandler.BulkDeleteVideos)
		}

		videoGroup := protected.Group("/videos")
		{
			videoGroup.GET("", instructorOnly, mediaHandler.ListVideos)
			videoGroup.GET("/:videoId/progress", learnerHandler.GetProgress)
			videoGroup.POST("/:videoId/progress", learnerHandler.RecordProgress)
		}

		uploadGroup := protected.Group("/uploads")
		{
			uploadGroup.POST("/staging-url", instructorOnly, mediaHandler.StagingUploadURL)
			uploadGroup.GET("/download-url/*fileId", mediaHandler.VideoDownloadURL)
		}

		protected.POST("/images/transform", instructorOnly, mediaHandler.Transform)
	}
}
