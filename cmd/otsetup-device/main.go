// Command otsetup-device runs the OpenThread Setup GATT service.
//
// It restores the Thread network settings from the settings file, prints
// them, starts the BLE peripheral and serves reads and writes of the five
// setup characteristics. A stored PAN ID of 0xFFFF marks the device as
// unprovisioned and clears the in-memory settings after boot.
//
// Usage:
//
//	otsetup-device [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-storage string       Settings file path
//	-ble                  Enable the BLE GATT server (default true)
//	-name string          Advertised BLE local name
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-protocol-log string  Write GATT access events to this file
//	-mqtt string          MQTT broker URL for change notifications
//	-interactive          Run the interactive shell
//
// Examples:
//
//	# Start with defaults
//	otsetup-device
//
//	# Provision over the shell without a radio
//	otsetup-device -ble=false -interactive
//
//	# Publish changes and keep a protocol trace
//	otsetup-device -mqtt mqtt://broker:1883/site -protocol-log /var/log/otsetup.otlog
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/otsetup/otsetup-go/cmd/otsetup-device/interactive"
	"github.com/otsetup/otsetup-go/pkg/gattserver"
	"github.com/otsetup/otsetup-go/pkg/notify"
	"tinygo.org/x/bluetooth"
)

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Invalid configuration: %v", err)
	}

	level, _ := parseLevel(cfg.Log.Level)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	log.Println("OpenThread Setup Device")
	log.Println("=======================")
	log.Printf("Settings: %s", cfg.Storage.Path)

	dev, err := boot(cfg, logger)
	if err != nil {
		log.Fatalf("Boot failed: %v", err)
	}
	defer func() {
		if err := dev.Close(); err != nil {
			log.Printf("Error closing settings: %v", err)
		}
	}()
	log.Printf("Device ID: %s", dev.deviceID)

	log.Println("Restored settings:")
	dev.printValues(log.Writer())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MQTT.Broker != "" {
		pub, err := notify.Dial(notify.Config{
			BrokerURL: cfg.MQTT.Broker,
			Topic:     cfg.MQTT.Topic,
			DeviceID:  dev.deviceID,
			Logger:    logger,
		})
		if err != nil {
			log.Printf("Warning: MQTT disabled: %v", err)
		} else {
			defer pub.Close()
			dev.svc.OnUpdated(pub.Hook(dev.reg))
			log.Printf("Publishing changes to %s", pub.Topic())
		}
	}

	bleDone := make(chan error, 1)
	if cfg.BLE.Enabled {
		srv := gattserver.New(bluetooth.DefaultAdapter, dev.svc, gattserver.Config{
			LocalName:   cfg.BLE.LocalName,
			Logger:      logger,
			EventLogger: dev.trace,
		})
		go func() { bleDone <- srv.Run(ctx) }()
		log.Printf("Advertising as %q", cfg.BLE.LocalName)
	}

	if dev.checkSentinel() {
		log.Println("PAN ID is unprovisioned (0xffff), settings reset")
	}

	if cfg.Interactive {
		shell, err := interactive.New(dev.svc)
		if err != nil {
			log.Fatalf("Failed to start shell: %v", err)
		}
		log.SetOutput(shell.Stdout())
		shell.Run(ctx, stop)
	}

	select {
	case <-ctx.Done():
	case err := <-bleDone:
		if err != nil {
			log.Printf("BLE server stopped: %v", err)
		}
	}

	log.Println("Shutting down...")
	stop()
	log.Println("Goodbye!")
}
