// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/auth"
	"github.com/olegiv/oblog-web/internal/cache"
	"github.com/olegiv/oblog-web/internal/config"
	"github.com/olegiv/oblog-web/internal/handler"
	"github.com/olegiv/oblog-web/internal/imaging"
	"github.com/olegiv/oblog-web/internal/middleware"
	"github.com/olegiv/oblog-web/internal/render"
	"github.com/olegiv/oblog-web/internal/scheduler"
	"github.com/olegiv/oblog-web/internal/session"
	"github.com/olegiv/oblog-web/internal/store"
	"github.com/olegiv/oblog-web/internal/version"
	"github.com/olegiv/oblog-web/web"
)

// crudHandlers defines the standard CRUD handler methods.
type crudHandlers struct {
	List     http.HandlerFunc
	NewForm  http.HandlerFunc
	Create   http.HandlerFunc
	EditForm http.HandlerFunc
	Update   http.HandlerFunc
	Delete   http.HandlerFunc
}

// registerCRUD registers standard CRUD routes for an admin resource.
// Routes: GET /, GET /new, POST /, GET /{id}/edit, POST /{id}/edit, POST /{id}/delete
func registerCRUD(r chi.Router, base, baseID string, h crudHandlers) {
	r.Get(base, h.List)
	r.Get(base+handler.RouteSuffixNew, h.NewForm)
	r.Post(base+handler.RouteSuffixNew, h.Create)
	r.Get(baseID+handler.RouteSuffixEdit, h.EditForm)
	r.Post(baseID+handler.RouteSuffixEdit, h.Update)
	r.Post(baseID+handler.RouteSuffixDelete, h.Delete)
}

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "oBlog Web - Blog Presentation Frontend\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_BACKEND_URL      Backend API base URL (required)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_SESSION_SECRET   Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_SESSION_DB_PATH  Session SQLite path (default: ./data/sessions.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_SERVER_PORT      Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_ENV              Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_ADMIN_USER_ID    User ID allowed into the admin console (default: 1)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  OBLOG_REDIS_URL        Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "\nFor more information, see: https://github.com/olegiv/oblog-web\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Printf("oblog-web %s\n", version.Get())
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure session data directory exists
	dbDir := filepath.Dir(cfg.SessionDBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize session database
	slog.Info("initializing session database", "path", cfg.SessionDBPath)
	db, err := store.NewDB(cfg.SessionDBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Initialize session manager
	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	// Backend API client
	client := api.New(cfg.BackendURL, cfg.BackendTimeoutDuration())
	slog.Info("backend client initialized", "url", cfg.BackendURL, "timeout", cfg.BackendTimeoutDuration())

	// Auth manager over the session's token slots
	authManager := auth.NewManager(auth.Config{
		Sessions:    sessionManager,
		Client:      client,
		AdminUserID: cfg.AdminUserID,
	})

	// Collection cache: Redis when configured, in-memory otherwise
	contentCache, err := cache.New(cache.Options{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	})
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer func() { _ = contentCache.Close() }()
	if cfg.UseRedisCache() {
		slog.Info("cache initialized", "backend", "redis", "url", cfg.RedisURL)
	} else {
		slog.Info("cache initialized", "backend", "memory", "max_size", cfg.CacheMaxSize)
	}

	lookup := cache.NewLookup(client, contentCache, cfg.CacheTTLDuration())

	// Scheduler keeps the lookup collections warm in the background
	sched := scheduler.New(db, logger)
	if err := sched.Register("cache-refresh", "Refresh cached backend collections",
		cfg.CacheRefreshSchedule, lookup.Refresh); err != nil {
		return fmt.Errorf("registering cache refresh job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// Initialize template renderer
	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		IsDev:          cfg.IsDevelopment(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	// Markdown content for the static pages
	contentFS, err := fs.Sub(web.Content, "content")
	if err != nil {
		return fmt.Errorf("getting content fs: %w", err)
	}

	// Image pipeline for editor uploads
	processor := imaging.NewProcessor(cfg.UploadMaxDimension)

	// Login protection: per-IP rate limit plus account lockout
	lpConfig := middleware.DefaultLoginProtectionConfig()
	lpConfig.IPRateLimit = cfg.LoginRateLimit
	lpConfig.IPBurst = cfg.LoginBurst
	loginProtection := middleware.NewLoginProtection(lpConfig)
	slog.Info("login protection initialized",
		"ip_rate_limit", cfg.LoginRateLimit,
		"ip_burst", cfg.LoginBurst,
	)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(client, authManager, renderer, loginProtection, cfg.AdminLogoutRedirect)
	frontendHandler := handler.NewFrontendHandler(client, lookup, renderer, authManager, contentFS)
	accountHandler := handler.NewAccountHandler(client, lookup, renderer, authManager)
	composeHandler := handler.NewComposeHandler(client, lookup, renderer, authManager)
	dashboardHandler := handler.NewDashboardHandler(client, lookup, renderer, authManager, sched.Registry())
	postsHandler := handler.NewPostsHandler(client, lookup, renderer, authManager)
	taxonomyHandler := handler.NewTaxonomyHandler(client, lookup, renderer, authManager)
	usersHandler := handler.NewUsersHandler(client, lookup, renderer, authManager)
	adminUploadHandler := handler.NewUploadHandler(client, authManager.AdminToken, processor, int64(cfg.UploadMaxBytes))
	userUploadHandler := handler.NewUploadHandler(client, authManager.UserToken, processor, int64(cfg.UploadMaxBytes))

	// Create router
	r := chi.NewRouter()

	// Middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))                    // Gzip compression with level 5
	r.Use(chimw.GetHead)                        // Handle HEAD requests for uptime monitoring
	r.Use(middleware.Timeout(30 * time.Second)) // 30 second request timeout
	r.Use(middleware.StripTrailingSlash)        // Redirect /path/ to /path (301)

	// Security headers middleware (CSP, HSTS, X-Frame-Options, etc.)
	securityConfig := middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())
	r.Use(middleware.SecurityHeaders(securityConfig))

	r.Use(sessionManager.LoadAndSave)
	r.Use(middleware.ProbeSessions(authManager))

	// CSRF protection for the browser-facing routes
	csrfConfig := middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret),
		cfg.IsDevelopment(), strconv.Itoa(cfg.ServerPort))
	csrfMiddleware := middleware.CSRF(csrfConfig)
	slog.Info("CSRF protection initialized", "dev", cfg.IsDevelopment())

	// Public frontend routes
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)

		r.Get(handler.RouteRoot, frontendHandler.Home)
		r.Get(handler.RouteBlogsID, frontendHandler.BlogDetail)
		r.Get(handler.RouteCategoriesID, frontendHandler.CategoryPosts)
		r.Get(handler.RouteSeriesID, frontendHandler.SeriesPosts)
		r.Get(handler.RouteAbout, frontendHandler.About)
		r.Get(handler.RouteContact, frontendHandler.Contact)

		// Visitor auth
		r.Get(handler.RouteLogin, authHandler.LoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.Login)
		r.Get(handler.RouteRegister, authHandler.RegisterForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteRegister, authHandler.Register)
		r.Post(handler.RouteLogout, authHandler.Logout)

		// Signed-in visitor area
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(authManager, handler.RouteLogin))
			r.Get(handler.RouteAccount, accountHandler.Account)

			r.Route(handler.RouteAccount+handler.RoutePosts, func(r chi.Router) {
				r.Get(handler.RouteSuffixNew, composeHandler.New)
				r.Post(handler.RouteSuffixNew, composeHandler.Create)
				r.Get(handler.RouteParamID+handler.RouteSuffixEdit, composeHandler.Edit)
				r.Post(handler.RouteParamID+handler.RouteSuffixEdit, composeHandler.Update)
				r.Post(handler.RouteParamID+handler.RouteSuffixDelete, composeHandler.Delete)
			})

			r.Post(handler.RouteAccount+handler.RouteUploadImage, userUploadHandler.UploadImage)
			r.Post(handler.RouteAccount+handler.RouteUploadImageByURL, userUploadHandler.UploadImageByURL)
		})
	})

	// Admin console
	r.Route("/admin", func(r chi.Router) {
		r.Use(csrfMiddleware)

		r.Get(handler.RouteLogin, authHandler.AdminLoginForm)
		r.With(loginProtection.Middleware()).Post(handler.RouteLogin, authHandler.AdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(authManager, "/admin"+handler.RouteLogin))

			r.Get(handler.RouteRoot, dashboardHandler.Dashboard)
			r.Post(handler.RouteLogout, authHandler.AdminLogout)

			r.Post("/jobs/{name}/run", dashboardHandler.RunJob)
			r.Post("/jobs/{name}/schedule", dashboardHandler.UpdateJobSchedule)
			r.Post("/jobs/{name}/reset", dashboardHandler.ResetJobSchedule)

			registerCRUD(r, handler.RoutePosts, handler.RoutePostsID, crudHandlers{
				List: postsHandler.List, NewForm: postsHandler.New, Create: postsHandler.Create,
				EditForm: postsHandler.Edit, Update: postsHandler.Update, Delete: postsHandler.Delete,
			})
			registerCRUD(r, handler.RouteCategories, handler.RouteCategoriesID, crudHandlers{
				List: taxonomyHandler.Categories, NewForm: taxonomyHandler.NewCategory, Create: taxonomyHandler.CreateCategory,
				EditForm: taxonomyHandler.EditCategory, Update: taxonomyHandler.UpdateCategory, Delete: taxonomyHandler.DeleteCategory,
			})
			registerCRUD(r, handler.RouteSeries, handler.RouteSeriesID, crudHandlers{
				List: taxonomyHandler.SeriesList, NewForm: taxonomyHandler.NewSeries, Create: taxonomyHandler.CreateSeries,
				EditForm: taxonomyHandler.EditSeries, Update: taxonomyHandler.UpdateSeries, Delete: taxonomyHandler.DeleteSeries,
			})
			registerCRUD(r, handler.RouteUsers, handler.RouteUsersID, crudHandlers{
				List: usersHandler.List, NewForm: usersHandler.New, Create: usersHandler.Create,
				EditForm: usersHandler.Edit, Update: usersHandler.Update, Delete: usersHandler.Delete,
			})

			// Editor image uploads proxied to the backend
			r.Post(handler.RouteUploadImage, adminUploadHandler.UploadImage)
			r.Post(handler.RouteUploadImageByURL, adminUploadHandler.UploadImageByURL)
		})
	})

	// Static files with long-lived cache headers
	staticFS, err := fs.Sub(web.Static, "static/dist")
	if err != nil {
		return fmt.Errorf("getting static fs: %w", err)
	}
	staticHandler := middleware.StaticCache(31536000)(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.Handle("/static/*", staticHandler)

	// 404 Not Found handler - render the frontend's 404 page
	r.NotFound(frontendHandler.NotFound)

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // Longer to allow for large uploads and slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
