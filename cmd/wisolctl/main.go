// wisolctl talks to a Wisol Sigfox module on a serial port: it can send
// messages, read the device identity and sensors, or serve a small HTTP
// gateway in front of the module.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/unabiz/wisol-go/wisol"
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML configuration file")
	flag.String("serial-port", "/dev/ttyUSB0", "Serial port the module is connected to")
	flag.String("bind-address", "0.0.0.0:8080", "Bind address for the serve command")
	flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.String("country", "sg", "Country code selecting the Sigfox frequency zone")
	flag.String("device", "", "Expected device ID (emulator mode)")
	flag.Bool("emulator", false, "Run against the local Sigfox emulator")
	flag.Parse()

	config, err := LoadConfig(WithDefaults(), WithEnv(), WithFile(*configPath), WithFlags(flag.CommandLine))
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	switch config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	country, err := wisol.ParseCountry(config.Country)
	if err != nil {
		logger.Error("Invalid country", "error", err)
		os.Exit(1)
	}

	driverConfig, err := wisol.NewConfigBuilder().
		WithTransport(wisol.NewSerialTransport(config.SerialPort)).
		WithCountry(country).
		WithEmulator(config.Emulator).
		WithDevice(config.Device).
		WithCommandTimeout(config.CommandTimeout).
		WithLogger(logger.With("component", "wisol")).
		Build()
	if err != nil {
		logger.Error("Failed to create driver config", "error", err)
		os.Exit(1)
	}

	driver, err := wisol.New(driverConfig)
	if err != nil {
		logger.Error("Failed to create driver", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Initializing module", "port", config.SerialPort, "country", country.String())
	if err := driver.Begin(ctx); err != nil {
		logger.Error("Module initialization failed", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, config, logger, driver, flag.Args()); err != nil {
		logger.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, config *Config, logger *slog.Logger, driver *wisol.Driver, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: wisolctl [flags] send <hex-payload> | text <message> | id | temperature | voltage | serve")
	}

	switch args[0] {
	case "send":
		if len(args) < 2 {
			return fmt.Errorf("send requires a hex payload argument")
		}
		return driver.SendMessage(ctx, args[1])

	case "text":
		if len(args) < 2 {
			return fmt.Errorf("text requires a message argument")
		}
		return driver.SendString(ctx, args[1])

	case "id":
		id, pac, err := driver.ID(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("id=%s pac=%s\n", id, pac)
		return nil

	case "temperature":
		temp, err := driver.Temperature(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%.1f\n", temp)
		return nil

	case "voltage":
		volt, err := driver.Voltage(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%.3f\n", volt)
		return nil

	case "serve":
		return serve(ctx, config, logger, driver)
	}

	return fmt.Errorf("unknown command %q", args[0])
}

func serve(ctx context.Context, config *Config, logger *slog.Logger, driver *wisol.Driver) error {
	httpServer := &http.Server{
		Addr: config.BindAddress,
		Handler: &Server{
			Logger: logger.With("component", "server"),
			Driver: driver,
		},
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("HTTP gateway listening", "address", config.BindAddress)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
