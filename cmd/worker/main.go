// Package main (in worker-subfolder) launches the thumbnail worker
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/UnendingLoop/PhotoApp/internal/kafka"
	"github.com/UnendingLoop/PhotoApp/internal/retrier"
	"github.com/UnendingLoop/PhotoApp/internal/storage"
	"github.com/UnendingLoop/PhotoApp/internal/worker"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/config"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"
)

const defaultThumbSize = 128

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}

	zlog.InitConsole()
	level := appConfig.GetString("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	if err := zlog.SetLevel(level); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	// Listening to interruptions through context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подкллючиться к хранилищу
	strg, err := storage.NewPhotoStorage(ctx, appConfig, 10*time.Second)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Storage is unreachable")
	}

	// ждем пока кафка раздуплится
	broker := appConfig.GetString("KAFKA_BROKER")
	if err := kafka.WaitKafkaReady(ctx, broker, 10*time.Second); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Kafka is unreachable")
	}
	// подключиться к кафке как читатель
	queue := make(chan kafkago.Message)
	retryStrategy := retry.Strategy{
		Attempts: 5,
		Delay:    2 * time.Second,
		Backoff:  1.5,
	}
	topic := appConfig.GetString("KAFKA_TOPIC")
	groupID := appConfig.GetString("KAFKA_GROUPID")
	cons := wbfkafka.NewConsumer([]string{broker}, topic, groupID)

	cons.StartConsuming(ctx, queue, retryStrategy)

	size := defaultThumbSize
	if v, err := strconv.Atoi(appConfig.GetString("THUMBNAIL_SIZE")); err == nil && v > 0 {
		size = v
	}

	// Собираем воедино все что нужно воркеру и запускаем его
	w := worker.NewWorkerInstance(strg, queue, cons, size, retrier.NewStrategy(2, 500*time.Millisecond, 2))
	go w.StartWorker(ctx)

	// Waiting for interruption to stop context to start Graceful shutdown
	<-ctx.Done()

	zlog.Logger.Info().Msg("Interrupt received!!! Starting shutdown sequence...")
	if err := cons.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close Kafka-reader")
	}
	zlog.Logger.Info().Msg("Exiting worker...")
}
