// @title           BoxTrack API
// @version         1.0
// @description     Progress and inspection tracking for prefabricated bathroom and utility boxes.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	_ "boxtrack/docs"
	"boxtrack/handlers"
	"boxtrack/services"
	"boxtrack/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"https://boxtrack.blueinvent.com",
		"http://localhost:9000",
		"http://localhost:8080",
		"http://localhost:3000",
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding", "X-XSRF-TOKEN",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Authorization", "Content-Type", "X-Total-Count",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

var cronRunning int32

func safeGo(
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	fn func(context.Context) error,
	cronLogger *log.Logger,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				if cronLogger != nil {
					cronLogger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				}
			}
		}()

		if err := fn(ctx); err != nil {
			log.Printf("%s failed: %v", name, err)
			if cronLogger != nil {
				cronLogger.Printf("%s failed: %v", name, err)
			}
		} else {
			log.Printf("%s completed successfully", name)
			if cronLogger != nil {
				cronLogger.Printf("%s completed successfully", name)
			}
		}
	}()
}

func main() {
	db := storage.InitDB()
	if err := storage.EnsureSessionTables(db); err != nil {
		log.Fatalf("Failed to ensure session tables: %v", err)
	}

	gormDB := storage.InitGormDB()
	if err := storage.SeedAdminUser(gormDB); err != nil {
		log.Printf("Warning: admin user seeding failed: %v", err)
	}

	// Firebase Cloud Messaging via the HTTP v1 API. Push delivery is optional;
	// the rest of the service runs fine without credentials.
	credentialsPath := os.Getenv("FCM_CREDENTIALS_PATH")
	if credentialsPath == "" {
		credentialsPath = "firebase-credentials.json"
	}
	fcmService, err := services.NewFCMService(credentialsPath, gormDB)
	if err != nil {
		log.Printf("Warning: Failed to initialize FCM service: %v. Push notifications will be disabled.", err)
		fcmService = nil
	} else {
		log.Println("FCM service initialized successfully")
	}

	wf := services.NewWorkflow(gormDB, fcmService)

	// Daily maintenance: session cleanup and overdue inspection reminders.
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)

	cronLogFile, err := os.OpenFile("cron_errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open cron error log file: %v", err)
	}
	cronLogger := log.New(cronLogFile, "CRON_ERROR: ", log.LstdFlags)

	_, err = c.AddFunc("30 6 * * *", func() {
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous cron still running. Skipping this run.")
			if cronLogger != nil {
				cronLogger.Println("Previous cron still running. Skipping this run.")
			}
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		log.Println("Starting daily maintenance cron job")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		var wg sync.WaitGroup

		safeGo(ctx, &wg, "CleanupExpiredSessions", func(ctx context.Context) error {
			return storage.CleanupExpiredSessions(db)
		}, cronLogger)

		safeGo(ctx, &wg, "OverdueInspectionReminders", func(ctx context.Context) error {
			return wf.Notifications.NotifyOverdueWIRs(72 * time.Hour)
		}, cronLogger)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Println("All cron jobs finished")
		case <-ctx.Done():
			log.Println("Cron timeout reached, jobs cancelled")
			if cronLogger != nil {
				cronLogger.Println("Cron timeout reached, jobs cancelled")
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily maintenance cron job: %v", err)
	}

	c.Start()

	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20

	r.Use(cors.New(CORSConfig()))

	// ==================== 1. AUTH & SESSIONS ====================
	r.POST("/api/login", handlers.LoginHandler(db))
	r.POST("/api/logout", handlers.LogoutHandler(db))
	r.POST("/api/validate-session", handlers.ValidateSession(db))

	// ==================== 2. BOXES ====================
	r.POST("/api/boxes", handlers.CreateBoxHandler(db, wf))
	r.GET("/api/boxes", handlers.ListBoxesHandler(db, wf))
	r.GET("/api/boxes/:id", handlers.GetBoxHandler(db, wf))
	r.DELETE("/api/boxes/:id", handlers.DeactivateBoxHandler(db, wf))
	r.POST("/api/boxes/resolve-qr", handlers.ResolveQRHandler(db, wf))
	r.GET("/api/boxes/:id/qr", handlers.GenerateBoxQRCodeJPEG(db, wf))
	r.GET("/api/activity-templates", handlers.ListTemplatesHandler(db, wf))

	// ==================== 3. PROGRESS ====================
	r.POST("/api/progress", handlers.RecordProgressHandler(db, wf))
	r.GET("/api/boxes/:id/progress", handlers.ListProgressHandler(db, wf))

	// ==================== 4. INSPECTION REQUESTS ====================
	r.POST("/api/wirs", handlers.CreateWIRHandler(db, wf))
	r.POST("/api/wirs/:id/approve", handlers.ApproveWIRHandler(db, wf))
	r.POST("/api/wirs/:id/reject", handlers.RejectWIRHandler(db, wf))
	r.GET("/api/boxes/:id/wirs", handlers.ListBoxWIRsHandler(db, wf))
	r.GET("/api/activities/:id/wirs", handlers.ListActivityWIRsHandler(db, wf))

	// ==================== 5. CHECKPOINTS & CHECKLISTS ====================
	r.GET("/api/checkpoints/:id", handlers.GetChecklistHandler(db, wf))
	r.GET("/api/boxes/:id/checkpoints", handlers.ListBoxChecklistsHandler(db, wf))
	r.POST("/api/checkpoints/:id/verdict", handlers.SubmitVerdictHandler(db, wf))
	r.POST("/api/checkpoints/:id/reopen", handlers.ReopenChecklistHandler(db, wf))

	// ==================== 6. QUALITY ISSUES ====================
	r.POST("/api/issues", handlers.CreateIssueHandler(db, wf))
	r.GET("/api/issues/:id", handlers.GetIssueHandler(db, wf))
	r.GET("/api/boxes/:id/issues", handlers.ListBoxIssuesHandler(db, wf))
	r.POST("/api/issues/:id/assign", handlers.AssignIssueHandler(db, wf))
	r.POST("/api/issues/:id/status", handlers.ChangeIssueStatusHandler(db, wf))
	r.POST("/api/issues/:id/comments", handlers.AddCommentHandler(db, wf))
	r.PUT("/api/comments/:id", handlers.EditCommentHandler(db, wf))
	r.DELETE("/api/comments/:id", handlers.DeleteCommentHandler(db, wf))

	// ==================== 7. NOTIFICATIONS ====================
	r.GET("/api/notifications", handlers.ListNotificationsHandler(db, wf))
	r.POST("/api/notifications/:id/read", handlers.MarkNotificationReadHandler(db, wf))
	r.POST("/api/device-tokens", handlers.RegisterDeviceTokenHandler(db, fcmService))

	// ==================== 8. FILES ====================
	r.POST("/api/upload", handlers.UploadFile)
	r.GET("/api/get-file", handlers.ServeFile)

	// ==================== 9. ACTIVITY LOGS ====================
	r.GET("/api/logs", handlers.GetActivityLogsHandler(db))

	// ==================== 10. SWAGGER ====================
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}
	portInt, err := strconv.Atoi(port)
	if err != nil {
		log.Fatalf("Invalid PORT environment variable: %s. Must be a number.", port)
	}
	if portInt < 0 || portInt > 65535 {
		log.Fatalf("Invalid PORT: %d. Must be between 0 and 65535.", portInt)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cronCtx := c.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(20 * time.Second):
		log.Println("Warning: cron jobs did not finish before shutdown deadline")
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exiting")
}
