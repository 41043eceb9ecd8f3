package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/parley-app/parley/internal/cache/sqlite"
	"github.com/parley-app/parley/internal/config"
	"github.com/parley-app/parley/internal/logger"
	mediaminio "github.com/parley-app/parley/internal/media/minio"
	"github.com/parley-app/parley/internal/model"
	"github.com/parley-app/parley/internal/realtime"
	"github.com/parley-app/parley/internal/remote/authapi"
	"github.com/parley-app/parley/internal/remote/postgres"
	"github.com/parley-app/parley/internal/screens"
	"github.com/parley-app/parley/internal/service"
	"github.com/parley-app/parley/internal/token"
	"github.com/parley-app/parley/internal/video"
)

// App wires the client's services together: the auth gateway, the profile
// synchronizer, the local cache, the hosted row store, conversational video,
// media storage, realtime channels and the screen router.
type App struct {
	cfg    *config.Config
	logger *logger.Logger

	Cache         *sqlite.Store
	DB            *postgres.Connection
	Gateway       *authapi.Client
	Sessions      *service.Auth
	Profiles      *service.ProfileSync
	Conversations *service.Launcher
	Media         model.MediaStorage
	Router        *screens.Router

	rtMu     sync.Mutex
	rt       *realtime.Client
	unwatch  func()
	closedMu sync.Mutex
	closed   bool
}

// New builds the application context from configuration. The session is not
// restored here; call Sessions.Initialize after construction.
func New(ctx context.Context, cfg *config.Config, l *logger.Logger) (*App, error) {
	cache, err := sqlite.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN)
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("failed to connect to row store: %w", err)
	}

	tokens := token.NewParser(cfg.Auth.JWTSecret)
	gateway := authapi.NewClient(cfg.Auth.BaseURL, cfg.Auth.APIKey, tokens, cache, l)

	profileStore := postgres.NewProfileRepository(db)
	interestStore := postgres.NewInterestRepository(db)

	profiles := service.NewProfileSync(gateway, profileStore, interestStore, cache, l)
	sessions := service.NewAuth(gateway, profiles, profileStore, l, cfg.InitTimeout)

	videoClient := video.NewClient(cfg.Video.BaseURL)
	conversations := service.NewLauncher(videoClient, cache, l)

	minioClient, err := minio.New(cfg.Media.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Media.AccessKey, cfg.Media.SecretKey, ""),
		Secure: cfg.Media.UseSSL,
	})
	if err != nil {
		db.Close()
		_ = cache.Close()
		return nil, fmt.Errorf("failed to create media client: %w", err)
	}

	media, err := mediaminio.NewClient(ctx, minioClient, cfg.Media.Bucket)
	if err != nil {
		db.Close()
		_ = cache.Close()
		return nil, fmt.Errorf("failed to init media storage: %w", err)
	}

	a := &App{
		cfg:           cfg,
		logger:        l,
		Cache:         cache,
		DB:            db,
		Gateway:       gateway,
		Sessions:      sessions,
		Profiles:      profiles,
		Conversations: conversations,
		Media:         media,
		Router:        screens.NewRouter(l),
	}

	a.unwatch = gateway.OnSessionChange(a.handleSessionChange)

	profiles.Seed(ctx)

	return a, nil
}

// handleSessionChange fans a session change out to the session manager, the
// realtime connection and the screen router.
func (a *App) handleSessionChange(event model.AuthEvent, session model.AuthSession) {
	a.Sessions.HandleSessionChange(event, session)

	switch event {
	case model.AuthEventSignedIn, model.AuthEventTokenRefreshed:
		a.connectRealtime(session.AccessToken)
		if event == model.AuthEventSignedIn {
			a.Router.Show(screens.ScreenDashboard)
		}
	case model.AuthEventSignedOut:
		a.disconnectRealtime()
		a.Router.Show(screens.ScreenWelcome)
	}
}

// Realtime returns the active channel client, or nil when signed out.
func (a *App) Realtime() *realtime.Client {
	a.rtMu.Lock()
	defer a.rtMu.Unlock()

	return a.rt
}

func (a *App) connectRealtime(accessToken string) {
	a.rtMu.Lock()
	defer a.rtMu.Unlock()

	if a.rt != nil {
		if err := a.rt.Close(); err != nil {
			a.logger.Error("App: failed to close stale realtime connection",
				"error", err.Error())
		}
		a.rt = nil
	}

	client, err := realtime.Dial(context.Background(), a.cfg.Realtime.URL, accessToken, a.logger.With("component", "realtime"))
	if err != nil {
		// Chat and presence stay unavailable until the next token refresh.
		a.logger.Error("App: failed to connect realtime channels",
			"error", err.Error())
		return
	}

	a.rt = client
}

func (a *App) disconnectRealtime() {
	a.rtMu.Lock()
	defer a.rtMu.Unlock()

	if a.rt == nil {
		return
	}

	if err := a.rt.Close(); err != nil {
		a.logger.Error("App: failed to close realtime connection",
			"error", err.Error())
	}
	a.rt = nil
}

// Close releases all resources. Safe to call once.
func (a *App) Close() error {
	a.closedMu.Lock()
	if a.closed {
		a.closedMu.Unlock()
		return nil
	}
	a.closed = true
	a.closedMu.Unlock()

	if a.unwatch != nil {
		a.unwatch()
	}

	a.Sessions.Wait()
	a.disconnectRealtime()
	a.DB.Close()

	if err := a.Cache.Close(); err != nil {
		return fmt.Errorf("failed to close local cache: %w", err)
	}

	return nil
}
