package main

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log2 "github.com/labstack/gommon/log"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	log3 "github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/ziflex/lecho/v3"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/sambitsargam/SafeDocs-sub000/chain"
	"github.com/sambitsargam/SafeDocs-sub000/delivery"
	"github.com/sambitsargam/SafeDocs-sub000/document"
	"github.com/sambitsargam/SafeDocs-sub000/metrics"
	"github.com/sambitsargam/SafeDocs-sub000/store"
	"github.com/sambitsargam/SafeDocs-sub000/verification"
)

const (
	verifyRoute      = "/documents/:id/verify"
	batchVerifyRoute = "/documents/verify-batch"
	contentRoute     = "/content/:cid"
	prewarmRoute     = "/content/:cid/prewarm"
	invalidateRoute  = "/content/:cid/cache"
	metricsRoute     = "/metrics"
)

type documentVerifier interface {
	VerifyDocument(
		ctx context.Context,
		documentID string,
		level document.VerificationLevel,
	) (*verification.VerificationResult, error)
	BatchVerify(
		ctx context.Context,
		documentIDs []string,
		level document.VerificationLevel,
	) (*verification.BatchResult, error)
}

type contentDeliverer interface {
	Retrieve(ctx context.Context, contentID string, loc *delivery.Location) ([]byte, delivery.Metrics, error)
	Prewarm(ctx context.Context, contentID string, priority delivery.Priority) (int, error)
	Invalidate(ctx context.Context, contentID string) (int, error)
}

type locationResolver interface {
	ResolveIPStr(ctx context.Context, ip string) (*delivery.Location, error)
}

//nolint:gomnd,funlen
func setConfig(configPath string) (*config, error) {
	log := log3.With().Str("role", "main").Caller().Logger()

	cfg := config{
		Log: logConfig{
			Pretty: true,
			Level:  "debug",
		},
		API: apiConfig{
			ListenAddr:           ":8000",
			AuthenticationTokens: []string{},
		},
		Database: databaseConfig{
			Enabled:          false,
			ConnectionString: "host=localhost port=5432 user=postgres password=postgres dbname=postgres",
		},
		Redis: redisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
		},
		Chain: chainConfig{
			Enabled:      false,
			URL:          "https://gateway.safedocs.dev",
			Token:        "",
			Timeout:      30 * time.Second,
			RetryWait:    10 * time.Second,
			RetryWaitMax: time.Minute,
			RetryCount:   5,
		},
		Delivery: deliveryConfig{
			CacheTTL: delivery.DefaultCacheTTL,
		},
		GeoIP: geoIPConfig{
			Enabled: false,
			Token:   "",
			Timeout: 5 * time.Second,
		},
	}

	expanded, err := homedir.Expand(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "cannot expand config path")
	}

	configPath = expanded

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Warn().Str("config_path", configPath).Msg("config file does not exist, creating new one")

		cfgStr, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, errors.Wrap(err, "cannot marshal config to yaml")
		}

		err = os.WriteFile(configPath, cfgStr, 0o600)
		if err != nil {
			return nil, errors.Wrap(err, "cannot create config file")
		}
	}

	viper.SetConfigFile(configPath)
	log.Debug().Str("config_path", configPath).Msg("reading config file")

	err = viper.ReadInConfig()
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config file")
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, errors.Wrap(err, "cannot unmarshal config")
	}

	return &cfg, nil
}

type verifyRequest struct {
	Level string `json:"level"`
}

func verifyDocumentHandler(c echo.Context, verifier documentVerifier) error {
	var request verifyRequest

	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	level, err := document.ParseLevel(request.Level)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := verifier.VerifyDocument(c.Request().Context(), c.Param("id"), level)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, result)
}

type batchVerifyRequest struct {
	DocumentIDs []string `json:"documentIds"`
	Level       string   `json:"level"`
}

func batchVerifyHandler(c echo.Context, verifier documentVerifier) error {
	var request batchVerifyRequest

	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if len(request.DocumentIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "documentIds is empty")
	}

	level, err := document.ParseLevel(request.Level)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	batch, err := verifier.BatchVerify(c.Request().Context(), request.DocumentIDs, level)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, batch)
}

func retrieveContentHandler(c echo.Context, deliverer contentDeliverer, resolver locationResolver) error {
	loc, err := parseLocation(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// geoip lookup is best-effort: selection falls back to latency ordering
	if loc == nil && resolver != nil {
		resolved, err := resolver.ResolveIPStr(c.Request().Context(), c.RealIP())
		if err == nil {
			loc = resolved
		}
	}

	data, retrievalMetrics, err := deliverer.Retrieve(c.Request().Context(), c.Param("cid"), loc)
	if err != nil {
		if errors.Is(err, delivery.ErrContentNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}

		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	header := c.Response().Header()
	header.Set("X-Content-Source", string(retrievalMetrics.Source))
	header.Set("X-Node-Used", retrievalMetrics.NodeUsed)
	header.Set("X-Cache-Hit", strconv.FormatBool(retrievalMetrics.CacheHit))
	header.Set("X-Retrieval-Time-Ms", strconv.FormatInt(retrievalMetrics.RetrievalTimeMs, 10))

	return c.Blob(http.StatusOK, echo.MIMEOctetStream, data)
}

func parseLocation(c echo.Context) (*delivery.Location, error) {
	latParam := c.QueryParam("lat")
	lngParam := c.QueryParam("lng")

	if latParam == "" && lngParam == "" {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(latParam, 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid lat query parameter")
	}

	lng, err := strconv.ParseFloat(lngParam, 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid lng query parameter")
	}

	return &delivery.Location{Lat: lat, Lng: lng}, nil
}

type prewarmRequest struct {
	Priority string `json:"priority"`
}

func prewarmContentHandler(c echo.Context, deliverer contentDeliverer) error {
	request := prewarmRequest{Priority: string(delivery.PriorityMedium)}

	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if request.Priority == "" {
		request.Priority = string(delivery.PriorityMedium)
	}

	warmed, err := deliverer.Prewarm(c.Request().Context(), c.Param("cid"), delivery.Priority(request.Priority))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]int{"nodesWarmed": warmed})
}

func invalidateContentHandler(c echo.Context, deliverer contentDeliverer) error {
	removed, err := deliverer.Invalidate(c.Request().Context(), c.Param("cid"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]int{"entriesRemoved": removed})
}

func setupAPI(
	cfg *config,
	verifier documentVerifier,
	deliverer contentDeliverer,
	resolver locationResolver,
	registry *prometheus.Registry,
) *echo.Echo {
	api := echo.New()
	echoLogger := lecho.From(
		log3.Logger,
		lecho.WithLevel(log2.INFO),
		lecho.WithField("role", "http_api"),
		lecho.WithTimestamp(),
	)
	api.Logger = echoLogger
	api.Use(lecho.Middleware(lecho.Config{Logger: echoLogger}))
	api.Use(middleware.Recover())

	handleAuth := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(cfg.API.AuthenticationTokens) > 0 {
				auth := c.Request().Header.Get("Authorization")
				if len(auth) < 8 ||
					strings.ToLower(auth[:7]) != "bearer " ||
					!slices.Contains(cfg.API.AuthenticationTokens, auth[7:]) {
					return echo.NewHTTPError(http.StatusUnauthorized, "invalid auth token")
				}
			}
			return next(c)
		}
	}

	api.Use(handleAuth)

	api.POST(
		verifyRoute, func(c echo.Context) error {
			return verifyDocumentHandler(c, verifier)
		},
	)

	api.POST(
		batchVerifyRoute, func(c echo.Context) error {
			return batchVerifyHandler(c, verifier)
		},
	)

	api.GET(
		contentRoute, func(c echo.Context) error {
			return retrieveContentHandler(c, deliverer, resolver)
		},
	)

	api.POST(
		prewarmRoute, func(c echo.Context) error {
			return prewarmContentHandler(c, deliverer)
		},
	)

	api.DELETE(
		invalidateRoute, func(c echo.Context) error {
			return invalidateContentHandler(c, deliverer)
		},
	)

	api.GET(
		metricsRoute,
		echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})),
	)

	return api
}

// custodyStore is the persistence surface verification needs. Both the gorm
// and the in-memory store satisfy it.
type custodyStore interface {
	verification.DocumentReader
	verification.ResultWriter
	verification.AuditWriter
}

func newStore(cfg *config) (custodyStore, error) {
	log := log3.With().Str("role", "main").Caller().Logger()

	if !cfg.Database.Enabled {
		log.Warn().Msg("database is disabled, documents and results are kept in memory")
		return store.NewInMemoryStore(), nil
	}

	db, err := gorm.Open(
		postgres.Open(cfg.Database.ConnectionString),
		&gorm.Config{
			Logger: store.GormLogger{
				Log: log3.With().Str("role", "sql").Logger(),
			},
		},
	)
	if err != nil {
		return nil, errors.Wrap(err, "cannot open database connection")
	}

	custody, err := store.NewGormStore(db)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create gorm store")
	}

	return custody, nil
}

func newCacheIndex(cfg *config) delivery.CacheIndex {
	log := log3.With().Str("role", "main").Caller().Logger()

	if !cfg.Redis.Enabled {
		log.Warn().Msg("redis is disabled, the cache index is process local")
		return delivery.NewMemoryCacheIndex()
	}

	client := redis.NewClient(
		&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
	)

	return delivery.NewRedisCacheIndex(client)
}

func newChainLookup(cfg *config) verification.ChainLookup {
	if !cfg.Chain.Enabled {
		log := log3.With().Str("role", "main").Caller().Logger()
		log.Warn().Msg("chain gateway is disabled, transaction references are trusted as anchored")

		return verification.ChainLookupFunc(
			func(ctx context.Context, txRef string) (bool, error) {
				return true, nil
			},
		)
	}

	return chain.NewGateway(
		chain.GatewayConfig{
			URL:          cfg.Chain.URL,
			Token:        cfg.Chain.Token,
			Timeout:      cfg.Chain.Timeout,
			RetryWait:    cfg.Chain.RetryWait,
			RetryWaitMax: cfg.Chain.RetryWaitMax,
			RetryCount:   cfg.Chain.RetryCount,
		},
	)
}

func run(configPath string) error {
	cfg, err := setConfig(configPath)
	if err != nil {
		return errors.Wrap(err, "cannot set config")
	}

	if cfg.Log.Pretty {
		log3.Logger = log3.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return errors.Wrap(err, "cannot parse log level")
	}

	zerolog.SetGlobalLevel(level)

	custody, err := newStore(cfg)
	if err != nil {
		return errors.Wrap(err, "cannot create document store")
	}

	registry := prometheus.NewRegistry()
	origin := delivery.NewMemoryOrigin()

	coordinator, err := delivery.NewCoordinator(
		delivery.CoordinatorConfig{
			Index:     newCacheIndex(cfg),
			Origin:    origin,
			Directory: origin,
			Metrics:   metrics.NewDelivery(registry),
			CacheTTL:  cfg.Delivery.CacheTTL,
		},
	)
	if err != nil {
		return errors.Wrap(err, "cannot create retrieval coordinator")
	}

	suite := verification.NewSuite(
		verification.SuiteConfig{
			Retriever: coordinator,
			Signer:    devSignerRecoverer(),
			Chain:     newChainLookup(cfg),
			ProofNet:  verification.StubProofVerifier{Valid: true},
		},
	)

	orchestrator, err := verification.NewOrchestrator(
		verification.OrchestratorConfig{
			Documents: custody,
			Suite:     suite,
			Results:   custody,
			Audits:    custody,
			Metrics:   metrics.NewVerification(registry),
		},
	)
	if err != nil {
		return errors.Wrap(err, "cannot create verification orchestrator")
	}

	var resolver locationResolver
	if cfg.GeoIP.Enabled {
		resolver = delivery.NewGeoIPResolver(
			delivery.GeoIPConfig{
				Token:   cfg.GeoIP.Token,
				Timeout: cfg.GeoIP.Timeout,
			},
		)
	}

	api := setupAPI(cfg, orchestrator, coordinator, resolver, registry)

	return errors.Wrap(api.Start(cfg.API.ListenAddr), "api server stopped")
}

// devSignerRecoverer treats the signature bytes as the signer address. It
// stands in until a key-recovery backend is configured and keeps
// self-consistent fixtures verifiable.
func devSignerRecoverer() verification.SignerRecoverer {
	return verification.SignerRecovererFunc(
		func(ctx context.Context, documentHash string, signature []byte) (string, error) {
			if len(signature) == 0 {
				return "", errors.New("empty signature")
			}

			return string(signature), nil
		},
	)
}
