package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	httpadp "lending-marketplace/internal/adapter/http"
	mw "lending-marketplace/internal/adapter/middleware"
	"lending-marketplace/internal/adapter/repository/mysql"
	"lending-marketplace/internal/config"
	"lending-marketplace/internal/infrastructure/bureau"
	"lending-marketplace/internal/infrastructure/cache"
	"lending-marketplace/internal/infrastructure/chain"
	"lending-marketplace/internal/infrastructure/creditmodel"
	"lending-marketplace/internal/infrastructure/db"
	"lending-marketplace/internal/infrastructure/logging"
	"lending-marketplace/internal/infrastructure/upstream"
	anchoruc "lending-marketplace/internal/usecase/anchor"
	"lending-marketplace/internal/usecase/ledger"
	loanuc "lending-marketplace/internal/usecase/loan"
	negotiationuc "lending-marketplace/internal/usecase/negotiation"
	proposaluc "lending-marketplace/internal/usecase/proposal"
	"lending-marketplace/internal/usecase/rate"
	scoreuc "lending-marketplace/internal/usecase/score"
	useruc "lending-marketplace/internal/usecase/user"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.IsProd())
	if err := cfg.Validate(); err != nil {
		logrus.WithError(err).Fatal("invalid config")
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		logrus.WithError(err).Fatal("open mysql")
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		logrus.WithError(err).Fatal("open redis")
	}
	defer rdb.Close()

	// repositories
	users := mysql.NewAccountRepository(gdb)
	loans := mysql.NewLoanRepository(gdb)
	scores := mysql.NewScoreRepository(gdb)
	u := mysql.NewGormUoW(gdb)

	// usecases
	sm := negotiationuc.NewStateMachine(mysql.NewNegotiationRepository(gdb), u, ledger.NewAdjuster(),
		negotiationuc.WithTTL(cfg.NegotiationTTL))
	lc := proposaluc.NewLifecycle(mysql.NewProposalRepository(gdb), u, sm)
	rec := rate.NewRecommender(mysql.NewHistoryStore(gdb), cache.NewBandCache(rdb, cfg.BandCacheTTL))
	bur, model, anchorer := upstreams(cfg)
	scoreSvc := scoreuc.NewService(users, loans, scores, bur, model)
	dispatcher := anchoruc.NewDispatcher(u, anchorer,
		anchoruc.WithBatchSize(cfg.AnchorBatchSize),
		anchoruc.WithMaxAttempts(cfg.AnchorMaxAttempts))

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(mw.RequestLogger(), middleware.Recover(), mw.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))

	write := []echo.MiddlewareFunc{mw.IdempotencyMiddleware(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)}
	if cfg.AuthEnabled() {
		write = append([]echo.MiddlewareFunc{mw.JWTAuth(cfg.JWTSecret)}, write...)
	}

	// routes
	httpadp.RegisterRoutes(e, httpadp.Handlers{
		Health:       httpadp.NewHandler(),
		Negotiations: httpadp.NewNegotiationHandler(sm),
		Proposals:    httpadp.NewProposalHandler(lc),
		Scores:       httpadp.NewScoreHandler(scoreSvc),
		Rates:        httpadp.NewRateHandler(rec),
		Users:        httpadp.NewUserHandler(useruc.NewService(users, loans)),
		Loans:        httpadp.NewLoanHandler(loanuc.NewUsecase(loans)),
	}, write...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go dispatcher.Run(ctx, cfg.AnchorInterval)

	go func() {
		addr := ":" + cfg.AppPort
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.AppEnv, "auth": cfg.AuthEnabled()}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("shutdown")
	}
	logrus.Info("bye")
}

// upstreams picks the HTTP clients for configured URLs and the in-process
// mocks otherwise.
func upstreams(cfg *config.Config) (scoreuc.Bureau, scoreuc.Model, anchoruc.Anchorer) {
	base := upstream.Config{APIKey: cfg.UpstreamKey, Timeout: cfg.UpstreamTTL}

	var bur scoreuc.Bureau = bureau.Mock{}
	if cfg.BureauURL != "" {
		c := base
		c.BaseURL = cfg.BureauURL
		bur = bureau.NewClient(c)
	}
	var model scoreuc.Model = creditmodel.DefaultLogistic
	if cfg.CreditModelURL != "" {
		c := base
		c.BaseURL = cfg.CreditModelURL
		model = creditmodel.NewClient(c)
	}
	var anchorer anchoruc.Anchorer = &chain.Mock{}
	if cfg.ChainURL != "" {
		c := base
		c.BaseURL = cfg.ChainURL
		anchorer = chain.NewClient(c)
	}
	if cfg.IsProd() && (cfg.BureauURL == "" || cfg.ChainURL == "") {
		logrus.Warn("running with mock bureau or chain gateway in production")
	}
	return bur, model, anchorer
}
