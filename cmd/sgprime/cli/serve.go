package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sgprime/sgprime/internal/mailer"
	"github.com/sgprime/sgprime/internal/server"
	"github.com/sgprime/sgprime/internal/service"
	"github.com/sgprime/sgprime/internal/upload"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		noUI bool
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the website and API server",
		Long:  "Start the HTTP server that serves the public website, the catalog API, and the admin console.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(noUI, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&noUI, "no-ui", false, "Disable the embedded frontend")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(noUI, dev bool) error {
	logger := buildLogger(dev)

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("database ready", "driver", viper.GetString("database.driver"))

	// Auth service. A development fallback secret keeps `sgprime serve`
	// working out of the box, but it is loudly flagged.
	jwtSecret := viper.GetString("auth.jwt_secret")
	if jwtSecret == "" {
		jwtSecret = "sgprime-dev-secret-change-me"
		logger.Warn("auth.jwt_secret is not set, using an insecure development secret")
	}
	authSvc, err := service.NewAuthService(store, service.AuthConfig{
		Secret:            jwtSecret,
		TokenTTL:          durationSetting("auth.jwt_expiry", 24*time.Hour),
		MinPasswordLength: viper.GetInt("auth.min_password_length"),
	}, logger)
	if err != nil {
		return err
	}

	// First-run hint.
	hasAdmin, err := store.HasAnyAdmin(context.Background())
	if err != nil {
		logger.Warn("failed to check for admin accounts", "error", err)
	}
	if !hasAdmin {
		logger.Warn("no admin account found - run: sgprime seed (or sgprime admin create)")
	}

	// Mailer: enabled only when an SMTP relay is configured.
	var m mailer.Mailer = mailer.Noop{Logger: logger}
	if viper.GetString("mail.host") != "" {
		smtp, err := mailer.NewSMTP(mailer.SMTPConfig{
			Host:     viper.GetString("mail.host"),
			Port:     viper.GetInt("mail.port"),
			Username: viper.GetString("mail.username"),
			Password: viper.GetString("mail.password"),
			From:     viper.GetString("mail.from"),
			To:       viper.GetString("mail.to"),
		}, logger)
		if err != nil {
			return fmt.Errorf("configure mailer: %w", err)
		}
		m = smtp
		logger.Info("enquiry notifications enabled", "relay", viper.GetString("mail.host"))
	} else {
		logger.Info("no SMTP relay configured, enquiry notifications disabled")
	}

	// Upload storage.
	uploadsDir := viper.GetString("uploads.dir")
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	saver, err := upload.NewSaver(uploadsDir, viper.GetInt64("uploads.max_size"))
	if err != nil {
		return err
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Version = versionString()
	srvCfg.EnableUI = !noUI
	if host := viper.GetString("server.host"); host != "" {
		srvCfg.Host = host
	}
	if port := viper.GetInt("server.port"); port != 0 {
		srvCfg.Port = port
	}
	srvCfg.ShutdownTimeout = durationSetting("server.shutdown_timeout", 30*time.Second)
	if origins := viper.GetStringSlice("server.cors.origins"); len(origins) > 0 {
		srvCfg.CORSOrigins = origins
	}

	srv := server.New(srvCfg, store, authSvc, m, saver, logger)

	fmt.Printf("sgprime %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", srvCfg.Host, srvCfg.Port)
	if srvCfg.EnableUI {
		fmt.Printf("→ Website:  http://%s:%d/\n", srvCfg.Host, srvCfg.Port)
		fmt.Printf("→ Admin:    http://%s:%d/admin\n", srvCfg.Host, srvCfg.Port)
	}
	fmt.Printf("→ API:      http://%s:%d/api/health\n", srvCfg.Host, srvCfg.Port)
	fmt.Println()

	return srv.ListenAndServe()
}
