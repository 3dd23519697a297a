package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/bookingadmin/config"
	"github.com/Domenick1991/bookingadmin/internal/audit"
	"github.com/Domenick1991/bookingadmin/internal/kafka"
	"github.com/Domenick1991/bookingadmin/internal/logger"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	log := logger.New(cfg.Log, "admin-audit-worker", os.Stdout)
	if len(cfg.Kafka.Brokers) == 0 {
		log.Fatal("kafka.brokers is empty, nothing to consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka, log.WithField("component", "kafka"))
	defer consumer.Close()

	sink := audit.NewSink(log)

	log.WithFields(logrus.Fields{"topic": cfg.Kafka.AuditTopic, "group_id": cfg.Kafka.GroupID}).Info("consuming audit events")
	err = consumer.Consume(ctx, sink.Record)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("consumer stopped")
		return
	}
	log.Info("shutting down")
}
