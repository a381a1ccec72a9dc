package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"nnrunner/internal/blobs"
	"nnrunner/internal/device"
	"nnrunner/internal/engine"
	"nnrunner/internal/httpapi"
	"nnrunner/internal/mqttlink"
	"nnrunner/internal/offload"
)

func newRunCmd(a *app) *cobra.Command {
	var (
		deviceID    string
		broker      string
		addr        string
		corsOrigins string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the broker, register and serve offload requests",
		Example: "  nnrunner run --device-id device_01 --broker tcp://edge:1883\n" +
			"  nnrunner run --config /etc/nnrunner.yaml --addr :9090",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("device-id") {
				a.cfg.DeviceID = deviceID
			}
			if cmd.Flags().Changed("broker") {
				a.cfg.BrokerURL = broker
			}
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}
			if cmd.Flags().Changed("cors-origins") {
				a.cfg.CORSEnabled = true
				a.cfg.CORSAllowedOrigins = splitCSV(corsOrigins)
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.run(ctx)
		},
	}
	f := cmd.Flags()
	f.StringVar(&deviceID, "device-id", "", "Device identifier used as topic root")
	f.StringVar(&broker, "broker", "", "MQTT broker URL, e.g. tcp://localhost:1883")
	f.StringVar(&addr, "addr", "", "HTTP listen address, e.g. :8080")
	f.StringVar(&corsOrigins, "cors-origins", "", "Comma-separated CORS origins for the HTTP API")
	return cmd
}

func (a *app) run(ctx context.Context) error {
	log := a.log.With().Str("device_id", a.cfg.DeviceID).Logger()

	if a.cfg.GCSBucket != "" && a.cfg.LayersDir != "" {
		if err := a.pull(ctx, false); err != nil {
			return err
		}
	}
	reg, err := a.loadRegistry()
	if err != nil {
		return fmt.Errorf("load layers: %w", err)
	}
	eng, err := engine.New(engine.Config{ArenaBytes: a.cfg.ArenaBytes})
	if err != nil {
		return err
	}
	for _, l := range reg.Layers() {
		if need := engine.Requirement(l); need > eng.ArenaCapacity() {
			log.Warn().Int("layer", l.Index).Int("need", need).Int("arena_bytes", eng.ArenaCapacity()).Msg("layer does not fit in arena")
		}
	}

	metrics := device.NewMetrics(prometheus.DefaultRegisterer)
	ctrl := offload.NewWithConfig(offload.Config{
		Registry:  reg,
		Engine:    eng,
		Publisher: offload.FanOut{metrics, device.LogPublisher{Logger: log}},
	})

	link, err := mqttlink.Dial(ctx, mqttlink.Options{
		BrokerURL:      a.cfg.BrokerURL,
		ClientID:       a.cfg.DeviceID,
		Username:       a.cfg.BrokerUsername,
		Password:       a.cfg.BrokerPassword,
		QoS:            byte(*a.cfg.QoS),
		ConnectTimeout: time.Duration(a.cfg.ConnectTimeoutSeconds) * time.Second,
		Logger:         log,
	})
	if err != nil {
		return err
	}
	defer link.Close()

	agent, err := device.New(device.Config{
		DeviceID:          a.cfg.DeviceID,
		RegistrationTopic: a.cfg.RegistrationTopic,
		InputHeight:       a.cfg.ImageHeight,
		InputWidth:        a.cfg.ImageWidth,
		ArenaBytes:        eng.ArenaCapacity(),
		Controller:        ctrl,
		Registry:          reg,
		Transport:         link,
		Metrics:           metrics,
		Logger:            log,
	})
	if err != nil {
		return err
	}

	httpapi.SetLogger(log)
	httpapi.SetDefaultLogLevel(a.cfg.LogLevel)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(a.cfg.MaxBodyBytes)
	httpapi.SetCORSOptions(a.cfg.CORSEnabled, a.cfg.CORSAllowedOrigins, a.cfg.CORSAllowedMethods, a.cfg.CORSAllowedHeaders)
	srv := &http.Server{Addr: a.cfg.Addr, Handler: httpapi.NewMux(agent), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Info().Str("addr", a.cfg.Addr).Int("layers", reg.Len()).Msg("http listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server error")
		}
	}()
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown error")
		}
	}()

	err = agent.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("shutting down")
		return nil
	}
	return err
}

func (a *app) pull(ctx context.Context, overwrite bool) error {
	store, err := blobs.NewGCSStore(ctx, a.cfg.GCSBucket)
	if err != nil {
		return err
	}
	defer store.Close()
	written, err := blobs.Pull(ctx, store, blobs.PullOptions{
		Prefix:    a.cfg.GCSPrefix,
		Dir:       a.cfg.LayersDir,
		Overwrite: overwrite,
		Logger:    a.log,
	})
	if err != nil {
		return fmt.Errorf("pull layers: %w", err)
	}
	a.log.Info().Int("written", len(written)).Str("dir", a.cfg.LayersDir).Msg("layers synced")
	return nil
}
