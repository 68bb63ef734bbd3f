package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"scenario-bot/handler"
	"scenario-bot/internal/config"
	"scenario-bot/internal/integrations/openai"
	"scenario-bot/internal/integrations/paramstore"
	"scenario-bot/internal/integrations/slack"
	"scenario-bot/internal/locale"
	"scenario-bot/internal/logger"
	"scenario-bot/internal/logstore"
	"scenario-bot/internal/repository"
	"scenario-bot/internal/usecase"
)

const (
	redisHistoryTTL = 30 * 24 * time.Hour
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logs := logstore.New(cfg.LogBufferSize)
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding}, logs.Core(logger.ParseLevel(cfg.LogStoreLevel)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, logs, log); err != nil {
		log.Error("service stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logs *logstore.Store, log *zap.Logger) error {
	ctx := context.Background()

	// ---- AWS SDK config, only when a component needs it ----
	var awsCfg aws.Config
	if cfg.UseParamStore() || cfg.HistoryBackend == config.HistoryDynamoDB {
		c, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return fmt.Errorf("load AWS config: %w", err)
		}
		awsCfg = c
	}

	// ---- Secrets ----
	var (
		tokens        openai.TokenSource = openai.StaticToken(cfg.OpenAIAPIKey)
		signingSecret                    = cfg.SlackSigningSecret
		botToken                         = cfg.SlackBotToken
	)
	if cfg.UseParamStore() {
		ssmClient, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
		if err != nil {
			return fmt.Errorf("create SSM client: %w", err)
		}
		cached, err := paramstore.NewCachedToken(ssmClient, paramstore.ParamName(cfg.ParamPrefix, paramstore.OpenAITokenParam))
		if err != nil {
			return err
		}
		tokens = cached
		if signingSecret, err = paramstore.GetToken(ctx, ssmClient, paramstore.ParamName(cfg.ParamPrefix, paramstore.SlackSigningSecretParam)); err != nil {
			return fmt.Errorf("load slack signing secret: %w", err)
		}
		if botToken == "" {
			// The bot token is optional: replies fall back to response_url.
			if botToken, err = paramstore.GetToken(ctx, ssmClient, paramstore.ParamName(cfg.ParamPrefix, paramstore.SlackBotTokenParam)); err != nil {
				log.Warn("slack bot token unavailable, replying via response_url", zap.Error(err))
				botToken = ""
			}
		}
	}

	// ---- Clients ----
	openaiOpts := []openai.Option{
		openai.WithModel(cfg.OpenAIModel),
		openai.WithHTTPClient(&http.Client{Timeout: cfg.OpenAITimeout}),
	}
	if cfg.OpenAIBaseURL != "" {
		openaiOpts = append(openaiOpts, openai.WithBaseURL(cfg.OpenAIBaseURL))
	}
	openaiClient, err := openai.NewClient(tokens, openaiOpts...)
	if err != nil {
		return fmt.Errorf("create OpenAI client: %w", err)
	}

	verifier, err := slack.NewVerifier(signingSecret)
	if err != nil {
		return fmt.Errorf("create slack verifier: %w", err)
	}
	replier := slack.NewReplier(botToken, slack.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))

	history, cleanup, err := newHistory(ctx, cfg, awsCfg)
	if err != nil {
		return err
	}
	defer cleanup()

	loc, err := loadLocale(cfg)
	if err != nil {
		return err
	}

	// ---- Service ----
	service, err := usecase.NewScenarioService(openaiClient, replier, history, loc, usecase.Config{
		MaxAttempts:    cfg.MaxAttempts,
		MaxInputLength: cfg.MaxInputLength,
		MinFieldLength: cfg.MinFieldLength,
	}, usecase.NewMetrics(prometheus.DefaultRegisterer), log)
	if err != nil {
		return fmt.Errorf("create scenario service: %w", err)
	}

	// ---- HTTP ----
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	h, err := handler.NewHandler(service, verifier, logs, history, cfg.SlackCommand, log)
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Router(handler.RouterOptions{AllowedOrigins: cfg.CORSAllowedOrigins, Metrics: true}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("scenario bot listening",
			zap.String("addr", srv.Addr),
			zap.String("model", openaiClient.Model()),
			zap.String("locale", loc.Name),
			zap.String("history_backend", cfg.HistoryBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	h.Wait()
	log.Info("server exited")
	return nil
}

func newHistory(ctx context.Context, cfg *config.Config, awsCfg aws.Config) (repository.History, func(), error) {
	noop := func() {}
	switch cfg.HistoryBackend {
	case config.HistoryRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		h, err := repository.NewRedisHistory(rdb, cfg.HistorySize, redisHistoryTTL)
		if err != nil {
			_ = rdb.Close()
			return nil, noop, err
		}
		return h, func() { _ = rdb.Close() }, nil
	case config.HistoryDynamoDB:
		h, err := repository.NewDynamoHistory(awsdynamodb.NewFromConfig(awsCfg), cfg.StateTable, cfg.HistorySize)
		if err != nil {
			return nil, noop, fmt.Errorf("create dynamodb history: %w", err)
		}
		return h, noop, nil
	default:
		return repository.NewMemoryHistory(cfg.HistorySize), noop, nil
	}
}

func loadLocale(cfg *config.Config) (*locale.Locale, error) {
	if cfg.LocaleFile != "" {
		loc, err := locale.LoadFile(cfg.LocaleFile)
		if err != nil {
			return nil, fmt.Errorf("load locale file: %w", err)
		}
		return loc, nil
	}
	loc, err := locale.Load(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("load locale %q: %w", cfg.Locale, err)
	}
	return loc, nil
}
