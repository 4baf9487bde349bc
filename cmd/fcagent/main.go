// Command fcagent connects to a FreeCiv server, performs the join
// handshake, and logs every chat message it receives. It exists to
// exercise the freecivagent driver end to end; real consumers are expected
// to call into package freecivagent directly rather than shell out to this
// binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	freecivagent "github.com/unixfreak0037/freeciv-agent"
	"github.com/unixfreak0037/freeciv-agent/capture"
	"github.com/unixfreak0037/freeciv-agent/config"
	"github.com/unixfreak0037/freeciv-agent/wire"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: fcagent -config <path>")
		os.Exit(2)
	}

	if err := run(*configPath); err != nil {
		logrus.WithError(err).Fatal("fcagent exiting")
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log := logrus.StandardLogger()
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	log.SetLevel(level)

	options := freecivagent.DefaultOptions()
	options.Host = cfg.Server.Host
	options.Port = cfg.Server.Port
	options.JoinTimeout = cfg.Join.Timeout()
	options.Log = log

	if cfg.Capture.Enabled {
		recorder, err := capture.NewRecorder(cfg.Capture.Dir)
		if err != nil {
			return err
		}
		options.Recorder = recorder
		log.WithField("dir", recorder.Dir()).Info("packet capture enabled")
	}

	agent := freecivagent.New(options)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := agent.Connect(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer agent.Disconnect()

	registry := agent.Registry()
	for _, path := range cfg.SchemaFiles {
		if err := registry.LoadSchemaFile(path); err != nil {
			return fmt.Errorf("loading schema file %s: %w", path, err)
		}
	}

	agent.RegisterHandler(wire.PacketChatMsg, func(packetType int, body []byte) error {
		schema, err := registry.Lookup(packetType)
		if err != nil {
			return err
		}
		record, err := wire.DecodeDelta(schema, body, agent.Cache())
		if err != nil {
			return err
		}
		message, _ := record.Get("message")
		log.WithField("message", message.String).Info("chat")
		return nil
	})

	if err := agent.Join(ctx, cfg.Join.Username); err != nil {
		return fmt.Errorf("join: %w", err)
	}
	log.WithField("username", cfg.Join.Username).Info("joined game")

	return agent.Run(ctx)
}
