package main

import (
	"context"
	"fmt"
	"log"

	"github.com/andrasq/kstats/internal/adapters/backend/gateway"
	"github.com/andrasq/kstats/internal/adapters/backend/influx"
	"github.com/andrasq/kstats/internal/adapters/backend/mqtt"
	"github.com/andrasq/kstats/internal/adapters/backend/postgres"
	"github.com/andrasq/kstats/internal/config"
	"github.com/andrasq/kstats/internal/ports"
)

// buildUploader constructs the configured backend and returns it together
// with its shutdown hook.
func buildUploader(ctx context.Context, cfg *config.DaemonConfig, rejects ports.RejectSink) (ports.Uploader, func(), error) {
	stale := cfg.Upload.StaleAfter.Std()
	instance := cfg.Backend.Instance

	switch cfg.Backend.Kind {
	case config.BackendGateway:
		c, err := gateway.New(gateway.Config{
			URL:        cfg.Backend.Gateway.URL,
			APIKey:     cfg.Backend.Gateway.APIKey,
			SignKey:    cfg.Backend.Gateway.SignKey,
			Instance:   instance,
			StaleAfter: stale,
			Rejects:    rejects,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil

	case config.BackendInflux:
		c, err := influx.New(influx.Config{
			URL:        cfg.Backend.Influx.URL,
			Token:      cfg.Backend.Influx.Token,
			Org:        cfg.Backend.Influx.Org,
			Bucket:     cfg.Backend.Influx.Bucket,
			Instance:   instance,
			StaleAfter: stale,
			Rejects:    rejects,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil

	case config.BackendPostgres:
		s, err := postgres.Open(ctx, postgres.Config{
			DSN:        cfg.Backend.Postgres.DSN,
			Instance:   instance,
			StaleAfter: stale,
			Rejects:    rejects,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Printf("close postgres: %v", err)
			}
		}, nil

	case config.BackendMQTT:
		c, err := mqtt.New(mqtt.Config{
			Broker:     cfg.Backend.MQTT.Broker,
			Topic:      cfg.Backend.MQTT.Topic,
			ClientID:   cfg.Backend.MQTT.ClientID,
			Username:   cfg.Backend.MQTT.Username,
			Password:   cfg.Backend.MQTT.Password,
			QoS:        byte(cfg.Backend.MQTT.QoS),
			Instance:   instance,
			StaleAfter: stale,
			Rejects:    rejects,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	}

	return nil, nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Backend.Kind)
}
