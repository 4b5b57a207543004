package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-dating-chat/internal/config"
	"github.com/npezzotti/go-dating-chat/internal/database"
	"github.com/npezzotti/go-dating-chat/internal/server"
	"github.com/npezzotti/go-dating-chat/internal/storage"
)

type GoChatApp struct {
	log            *log.Logger
	db             database.Repository
	mux            *http.Server
	cs             *server.ChatServer
	store          storage.FileStore
	signingKey     []byte
	tokenTTL       time.Duration
	allowedOrigins []string
}

func NewGoChatApp(mux *http.ServeMux, logger *log.Logger, cs *server.ChatServer, db database.Repository, store storage.FileStore, cfg *config.Config) *GoChatApp {
	s := &GoChatApp{
		log:            logger,
		db:             db,
		cs:             cs,
		store:          store,
		signingKey:     cfg.SigningKey,
		tokenTTL:       cfg.TokenTTL,
		allowedOrigins: cfg.AllowedOrigins,
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = defaultJwtExpiration
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)

	mux.HandleFunc("POST /api/auth/register", s.createAccount)
	mux.HandleFunc("POST /api/auth/login", s.login)
	mux.HandleFunc("GET /api/auth/session", s.authMiddleware(s.session))
	mux.HandleFunc("GET /api/auth/logout", s.authMiddleware(s.logout))

	mux.HandleFunc("GET /api/users/profile", s.authMiddleware(s.getProfile))
	mux.HandleFunc("PUT /api/users/profile", s.authMiddleware(s.updateProfile))
	mux.HandleFunc("POST /api/users/profile/picture", s.authMiddleware(s.updateProfilePicture))
	mux.HandleFunc("GET /api/users/search", s.authMiddleware(s.searchUsers))
	mux.HandleFunc("GET /api/users/blocked", s.authMiddleware(s.getBlockedUsers))
	mux.HandleFunc("POST /api/users/block/{id}", s.authMiddleware(s.blockUser))
	mux.HandleFunc("DELETE /api/users/unblock/{id}", s.authMiddleware(s.unblockUser))

	mux.HandleFunc("GET /api/rooms", s.authMiddleware(s.getRooms))
	mux.HandleFunc("POST /api/rooms", s.authMiddleware(s.adminMiddleware(s.createRoom)))
	mux.HandleFunc("GET /api/rooms/{id}/messages", s.authMiddleware(s.getRoomMessages))

	mux.HandleFunc("GET /api/conversations", s.authMiddleware(s.getConversations))
	mux.HandleFunc("POST /api/conversations", s.authMiddleware(s.createConversation))
	mux.HandleFunc("GET /api/conversations/{id}/messages", s.authMiddleware(s.getPrivateMessages))

	mux.HandleFunc("GET /api/favorites", s.authMiddleware(s.getFavorites))
	mux.HandleFunc("POST /api/favorites/status", s.authMiddleware(s.favoriteStatus))
	mux.HandleFunc("POST /api/favorites/{id}", s.authMiddleware(s.addFavorite))
	mux.HandleFunc("DELETE /api/favorites/{id}", s.authMiddleware(s.removeFavorite))

	mux.HandleFunc("POST /api/moderation/report", s.authMiddleware(s.reportUser))
	mux.HandleFunc("GET /api/moderation/reports", s.authMiddleware(s.adminMiddleware(s.getReports)))
	mux.HandleFunc("POST /api/moderation/ban/{id}", s.authMiddleware(s.adminMiddleware(s.banUser)))

	mux.HandleFunc("POST /api/upload", s.authMiddleware(s.uploadFile))
	if cfg.UploadDir != "" {
		mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(filesOnly{http.Dir(cfg.UploadDir)})))
	}

	mux.HandleFunc("GET /ws", s.authMiddleware(s.serveWs))

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	s.mux = srv
	return s
}

func (s *GoChatApp) Start() error {
	s.log.Printf("starting server on %s\n", s.mux.Addr)
	return s.mux.ListenAndServe()
}

func (s *GoChatApp) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.mux.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}
