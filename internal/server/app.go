// Package server initializes and runs the shopauth server.
// It selects the credential store, verification registry and mail backends
// from config, runs the HTTP and gRPC servers and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/shopauth/internal/logging"
	"github.com/dmitrijs2005/shopauth/internal/obs"
	"github.com/dmitrijs2005/shopauth/internal/server/config"
	"github.com/dmitrijs2005/shopauth/internal/server/events"
	"github.com/dmitrijs2005/shopauth/internal/server/identity"
	"github.com/dmitrijs2005/shopauth/internal/server/mailer"
	"github.com/dmitrijs2005/shopauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/shopauth/internal/server/services"
	"github.com/dmitrijs2005/shopauth/internal/server/verification"

	gs "github.com/dmitrijs2005/shopauth/internal/server/grpc"
	hs "github.com/dmitrijs2005/shopauth/internal/server/http"
)

const closeTimeout = 10 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	credentials *services.CredentialService
	sweeper     *verification.MemoryRegistry

	// closers run in reverse order on shutdown
	closers []func(context.Context) error
}

// NewApp builds the application from c. version is reported to the tracer.
func NewApp(ctx context.Context, c *config.Config, version string) (*App, error) {
	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)
	return newApp(ctx, c, version, logger)
}

func newApp(ctx context.Context, c *config.Config, version string, logger logging.Logger) (_ *App, err error) {
	app := &App{config: c, logger: logger}
	defer func() {
		if err != nil {
			app.close(ctx)
		}
	}()

	shutdownTracer, err := obs.InitTracer(ctx, "shopauth", version, c.OTLPEndpoint)
	if err != nil {
		return nil, err
	}
	app.onClose(shutdownTracer)

	repos, err := app.openRepositories(ctx)
	if err != nil {
		return nil, err
	}

	registry, err := app.openRegistry(ctx)
	if err != nil {
		return nil, err
	}

	mail, err := app.openMailer(ctx)
	if err != nil {
		return nil, err
	}

	composer, err := mailer.NewComposer(c.SiteName, c.VerificationCodeTTL)
	if err != nil {
		return nil, err
	}

	deps := services.Dependencies{
		Repos:    repos,
		Registry: registry,
		Mailer:   mail,
		Composer: composer,
		Events:   events.Nop{},
		Logger:   logger,
	}

	if c.GoogleClientID != "" {
		v, err := identity.NewGoogleVerifier(ctx, c.GoogleClientID, nil)
		if err != nil {
			return nil, err
		}
		deps.Verifier = v
	}

	if c.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(c.AMQPURL, c.AMQPExchange)
		if err != nil {
			return nil, err
		}
		app.onClose(func(context.Context) error { return p.Close() })
		deps.Events = p
	}

	app.credentials = services.NewCredentialService(deps, c)
	return app, nil
}

func (app *App) openRepositories(ctx context.Context) (repomanager.RepositoryManager, error) {
	var m repomanager.RepositoryManager

	switch app.config.StorageBackend {
	case config.StoragePostgres:
		db, err := repomanager.OpenPostgres(ctx, app.config.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		m = repomanager.NewPostgresRepositoryManager(db)
	case config.StorageMongo:
		mm, err := repomanager.NewMongoRepositoryManager(ctx, app.config.MongoURI, app.config.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		m = mm
	case config.StorageMemory:
		app.logger.Warn(ctx, "using in-memory account storage, accounts are lost on restart")
		m = repomanager.NewMemoryRepositoryManager()
	default:
		return nil, fmt.Errorf("unknown storage backend %q", app.config.StorageBackend)
	}
	app.onClose(m.Close)

	if err := m.RunMigrations(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (app *App) openRegistry(ctx context.Context) (verification.Registry, error) {
	ttl := verification.WithTTL(app.config.VerificationCodeTTL)

	var r verification.Registry
	switch app.config.RegistryBackend {
	case config.RegistryMemory:
		mr := verification.NewMemoryRegistry(ttl)
		app.sweeper = mr
		r = mr
	case config.RegistryRedis:
		client, err := verification.NewRedisClient(ctx, app.config.RedisAddr, app.config.RedisPassword, app.config.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("redis init error: %w", err)
		}
		r = verification.NewRedisRegistry(client, ttl)
	default:
		return nil, fmt.Errorf("unknown registry backend %q", app.config.RegistryBackend)
	}

	app.onClose(func(context.Context) error { return r.Close() })
	return r, nil
}

func (app *App) openMailer(ctx context.Context) (mailer.Mailer, error) {
	from := mailer.Sender{Address: app.config.MailFrom, Name: app.config.MailFromName}

	switch app.config.MailBackend {
	case config.MailConsole:
		app.logger.Warn(ctx, "mail is printed to stdout, do not use in production")
		return mailer.NewConsoleMailer(os.Stdout, app.logger), nil
	case config.MailSMTP:
		return mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     app.config.SMTPHost,
			Port:     app.config.SMTPPort,
			Username: app.config.SMTPUsername,
			Password: app.config.SMTPPassword,
			UseSSL:   app.config.SMTPUseSSL,
			Timeout:  app.config.SMTPTimeout,
			From:     from,
		}), nil
	case config.MailSES:
		return mailer.NewSESMailer(ctx, mailer.SESConfig{
			Region:          app.config.SESRegion,
			AccessKeyID:     app.config.SESAccessKeyID,
			SecretAccessKey: app.config.SESSecretAccessKey,
			BaseEndpoint:    app.config.SESBaseEndpoint,
			From:            from,
		})
	default:
		return nil, fmt.Errorf("unknown mail backend %q", app.config.MailBackend)
	}
}

// Credentials exposes the credential service, e.g. for the makeadmin command.
func (app *App) Credentials() *services.CredentialService {
	return app.credentials
}

func (app *App) onClose(fn func(context.Context) error) {
	app.closers = append(app.closers, fn)
}

// close releases everything opened by newApp, newest first.
func (app *App) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()

	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i](ctx); err != nil {
			app.logger.Error(ctx, "close failed", "error", err)
		}
	}
	app.closers = nil
}

// Close releases resources without running the servers.
func (app *App) Close(ctx context.Context) {
	app.close(ctx)
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := hs.NewServer(app.config.HTTPAddr, app.logger, app.credentials, app.config.CookieSecure, app.config.SessionTokenValidityDuration)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.credentials)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM/SIGQUIT arrives, then
// stops the servers and releases resources.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.sweeper != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.sweeper.RunSweeper(ctx, app.config.RegistrySweepInterval, func(n int) {
				app.logger.Debug(ctx, "expired verification codes swept", "count", n)
			})
		}()
	}

	wg.Wait()

	app.logger.Info(ctx, "Stopping app...")
	app.close(ctx)
}
