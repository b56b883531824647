// Package app はサブコマンドの解析と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/storefront/internal/auth"
	"github.com/hitoshi/storefront/internal/config"
	"github.com/hitoshi/storefront/internal/database"
	"github.com/hitoshi/storefront/internal/handler"
	"github.com/hitoshi/storefront/internal/logger"
	"github.com/hitoshi/storefront/internal/metrics"
	"github.com/hitoshi/storefront/internal/middleware"
	"github.com/hitoshi/storefront/internal/repository"
	"github.com/hitoshi/storefront/internal/rider"
	"github.com/hitoshi/storefront/internal/security"
	"github.com/hitoshi/storefront/internal/user"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// storeConnectTimeout はデータストア接続確認のタイムアウト。
	storeConnectTimeout = 10 * time.Second
	// shutdownTimeout はグレースフルシャットダウンの待ち時間。
	shutdownTimeout = 30 * time.Second
	// idpFetchTimeout はIdPのディスカバリ文書とJWKS取得のタイムアウト。
	idpFetchTimeout = 10 * time.Second
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envファイルがあれば環境変数に取り込む
	if err := config.LoadDotEnv(os.Getenv("DOTENV_PATH")); err != nil {
		return nil, err
	}

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	switch cmd {
	case CommandHealthcheck:
		// 軽量サブコマンドのため、フル初期化をスキップする
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "5000"
		}
		return runHealthcheck(port)
	case CommandMigrate:
		// マイグレーションはDATABASE_URLのみを必要とする
		if err := config.LoadDotEnv(os.Getenv("DOTENV_PATH")); err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}
		logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))
		databaseURL, err := config.LoadDatabaseURL()
		if err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}
		return runMigrate(databaseURL)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("store_driver", cfg.StoreDriver),
	)

	return runServe(cfg)
}

// store は選択されたデータストアのリポジトリと後始末をまとめたもの。
type store struct {
	users   repository.UserRepository
	orders  repository.OrderRepository
	checker handler.HealthChecker
	close   func()
}

// openStore はSTORE_DRIVERに応じてPostgreSQLまたはMongoDBに接続する。
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		ms, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, storeConnectTimeout)
		if err != nil {
			return nil, err
		}
		if err := ms.EnsureIndexes(ctx); err != nil {
			_ = ms.Close(context.Background())
			return nil, err
		}
		slog.Info("mongodb connection established", slog.String("database", cfg.MongoDatabase))
		return &store{
			users:   repository.NewMongoUserRepo(ms.Database),
			orders:  repository.NewMongoOrderRepo(ms.Database),
			checker: ms,
			close: func() {
				if err := ms.Close(context.Background()); err != nil {
					slog.Error("failed to disconnect mongodb", slog.String("error", err.Error()))
				}
			},
		}, nil
	default:
		db, err := database.OpenAndPing(ctx, cfg.DatabaseURL, storeConnectTimeout)
		if err != nil {
			return nil, err
		}
		slog.Info("database connection established")
		return &store{
			users:   repository.NewPostgresUserRepo(db),
			orders:  repository.NewPostgresOrderRepo(db),
			checker: db,
			close:   func() { db.Close() },
		}, nil
	}
}

// newIdentityVerifier は発行者URLを検証し、内部ネットワークに接続しないクライアントで検証器を生成する。
func newIdentityVerifier(ctx context.Context, cfg *config.Config, guard security.OutboundGuard) (*auth.GoogleVerifier, error) {
	if err := guard.ValidateIssuerURL(cfg.GoogleIssuer); err != nil {
		return nil, err
	}
	return auth.NewGoogleVerifier(ctx, cfg.GoogleIssuer, cfg.GoogleClientID, guard.NewSafeClient(idpFetchTimeout))
}

// newRateLimiter は設定のreq/minからRateLimiterを生成する。
func newRateLimiter(cfg *config.Config) *middleware.RateLimiter {
	rlCfg := middleware.DefaultRateLimiterConfig()
	rlCfg.GeneralRate, rlCfg.GeneralBurst = middleware.PerMinute(cfg.RateLimitGeneral)
	rlCfg.LoginRate, rlCfg.LoginBurst = middleware.PerMinute(cfg.RateLimitLogin)
	return middleware.NewRateLimiter(rlCfg)
}

// buildRouter はリポジトリとIDトークン検証器から全サービスを組み立て、ルーターを返す。
func buildRouter(cfg *config.Config, st *store, verifier auth.IdentityVerifier, limiter *middleware.RateLimiter) http.Handler {
	// 1. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 2. ドメインサービス
	tokens := auth.NewTokenService(cfg.JWTSecret)
	authService := auth.NewService(verifier, tokens, st.users,
		auth.WithProfileSanitizer(security.NewProfileSanitizer()),
	)
	userService := user.NewService(st.users)
	riderService := rider.NewService(st.orders)

	// 3. ルーター
	return handler.NewRouter(&handler.RouterDeps{
		SessionValidator:  tokens,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       limiter,
		Logger:            slog.Default(),
		Metrics:           collector,
		MetricsHandler:    metrics.Handler(registry),
		HealthChecker:     st.checker,

		AuthService:    authService,
		AdminService:   userService,
		RiderService:   riderService,
		ProfileService: userService,
	})
}

// runServe はAPIサーバーモードで起動する。
// データストアに接続し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	ctx := context.Background()

	// 1. データストア接続
	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.close()

	// 2. IDトークン検証器（IdPのディスカバリ文書を取得する）
	verifier, err := newIdentityVerifier(ctx, cfg, security.NewOutboundGuard())
	if err != nil {
		return fmt.Errorf("failed to initialize identity verifier: %w", err)
	}

	// 3. ルーターの構築
	limiter := newRateLimiter(cfg)
	defer limiter.Stop()

	router := buildRouter(cfg, st, verifier, limiter)

	// 4. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server listen error: %w", err)
	case <-stop:
	}
	slog.Info("shutting down API server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。MongoDBは対象外。
func runMigrate(databaseURL string) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(databaseURL)),
	)

	if err := database.RunMigrations(databaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.MigrationVersion(databaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
