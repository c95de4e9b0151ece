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

	"github.com/joho/godotenv"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/authbridge/internal/auth/cas"
	"github.com/dropDatabas3/authbridge/internal/auth/client"
	"github.com/dropDatabas3/authbridge/internal/auth/oauth"
	"github.com/dropDatabas3/authbridge/internal/config"
	httpserver "github.com/dropDatabas3/authbridge/internal/http"
	"github.com/dropDatabas3/authbridge/internal/metrics"
	"github.com/dropDatabas3/authbridge/internal/observability/logger"
	"github.com/dropDatabas3/authbridge/internal/store"
	pgstore "github.com/dropDatabas3/authbridge/internal/store/pg"
)

var version = "dev"

func main() {
	var cfgPath string

	root := &cobra.Command{
		Use:           "authbridge",
		Short:         "Multi-protocol authentication bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "config file path")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(*cobra.Command, []string) {
			fmt.Println(version)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(*cobra.Command, []string) error {
			return serve(cfgPath)
		},
	})

	root.AddCommand(migrateCmd(&cfgPath))
	root.AddCommand(hashpwCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func serve(cfgPath string) error {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       cfg.App.LogLevel,
		ServiceName: "authbridge",
	})
	defer func() { _ = logger.Sync() }()
	log := logger.Named("main")

	if err := metrics.Register(nil); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	users, closeUsers, err := buildUserStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeUsers()

	clients, receptor, err := buildClients(cfg, users)
	if err != nil {
		return err
	}
	if receptor != nil {
		defer receptor.Close()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httpserver.NewServer(clients, receptor).Router())

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func buildUserStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Users.Driver {
	case "postgres":
		pgs, err := pgstore.New(ctx, cfg.Users.DSN)
		if err != nil {
			return nil, nil, err
		}
		return pgs, pgs.Close, nil
	default:
		seed := make([]*store.User, 0, len(cfg.Users.Seed))
		for _, s := range cfg.Users.Seed {
			u := store.NewUser(s.Username, s.PasswordHash)
			for k, v := range s.Attributes {
				u.SetAttribute(k, v)
			}
			seed = append(seed, u)
		}
		return store.NewMemory(seed...), func() {}, nil
	}
}

func buildClients(cfg *config.Config, users store.Store) (*client.Registry, *cas.ProxyReceptor, error) {
	authn := client.NewStoreAuthenticator(users)
	profiles := client.NewStoreProfileBuilder(users)

	var list []client.Client
	if cfg.Form.Enabled {
		list = append(list, client.NewForm("form", client.FormConfig{
			LoginURL:          cfg.Form.LoginURL,
			CallbackURL:       cfg.Server.BaseURL + "/auth/form/callback",
			UsernameParameter: cfg.Form.UsernameParameter,
			PasswordParameter: cfg.Form.PasswordParameter,
		}, authn, profiles))
	}
	if cfg.Basic.Enabled {
		list = append(list, client.NewBasic("basic", client.BasicConfig{
			CallbackURL: cfg.Server.BaseURL + "/auth/basic/callback",
			Realm:       cfg.Basic.Realm,
		}, authn, profiles))
	}
	for _, p := range cfg.OAuth {
		provider, err := providerFor(p)
		if err != nil {
			return nil, nil, err
		}
		list = append(list, oauth.New(p.Name, oauth.Config{
			Key:            p.Key,
			Secret:         p.Secret,
			CallbackURL:    cfg.Server.BaseURL + "/auth/" + p.Name + "/callback",
			ConnectTimeout: time.Duration(p.ConnectTimeoutMs) * time.Millisecond,
			ReadTimeout:    time.Duration(p.ReadTimeoutMs) * time.Millisecond,
		}, provider))
	}

	var receptor *cas.ProxyReceptor
	if cfg.CAS.Enabled {
		rcfg := cas.ProxyReceptorConfig{
			CallbackURL:           cfg.Server.BaseURL + "/cas/proxy-callback",
			MillisBetweenCleanups: cfg.CAS.MillisBetweenCleanups,
			DisableCleanups:       cfg.CAS.DisableCleanups,
		}
		if cfg.CAS.TicketStore == "redis" {
			millis := cfg.CAS.MillisBetweenCleanups
			if millis <= 0 {
				millis = cas.DefaultMillisBetweenCleanups
			}
			interval := time.Duration(millis) * time.Millisecond
			if cfg.CAS.DisableCleanups {
				interval = 0
			}
			rstore, err := cas.NewRedisStore(cas.RedisStoreConfig{
				Addr:     cfg.CAS.Redis.Addr,
				Password: cfg.CAS.Redis.Password,
				DB:       cfg.CAS.Redis.DB,
			}, interval)
			if err != nil {
				return nil, nil, err
			}
			rcfg.Store = rstore
		}
		receptor = cas.NewProxyReceptor("cas", rcfg)
		list = append(list, receptor)
	}

	return client.NewRegistry(list...), receptor, nil
}

func providerFor(p config.OAuthProvider) (oauth.Provider, error) {
	switch p.Name {
	case "github":
		return oauth.GitHub(), nil
	case "google":
		return oauth.Google(p.Key), nil
	case "custom":
		idAttr := p.IDAttribute
		if idAttr == "" {
			idAttr = "id"
		}
		return oauth.Provider{
			Name:             "custom",
			AuthorizationURL: p.AuthorizationURL,
			TokenURL:         p.TokenURL,
			ProfileURL:       p.ProfileURL,
			Scopes:           p.Scopes,
			IDAttribute:      idAttr,
			Schema:           []oauth.AttributeDef{{Name: idAttr}},
		}, nil
	default:
		return oauth.Provider{}, fmt.Errorf("unknown oauth provider %q", p.Name)
	}
}
