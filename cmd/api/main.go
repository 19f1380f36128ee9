// Package main (in api-subfolder) provides launch of the photo API
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/PhotoApp/internal/awsconf"
	"github.com/UnendingLoop/PhotoApp/internal/detector"
	"github.com/UnendingLoop/PhotoApp/internal/events"
	"github.com/UnendingLoop/PhotoApp/internal/kafka"
	"github.com/UnendingLoop/PhotoApp/internal/mwlogger"
	"github.com/UnendingLoop/PhotoApp/internal/repository"
	"github.com/UnendingLoop/PhotoApp/internal/repository/pgrepo"
	"github.com/UnendingLoop/PhotoApp/internal/service"
	"github.com/UnendingLoop/PhotoApp/internal/storage"
	"github.com/UnendingLoop/PhotoApp/internal/transport"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	level := appConfig.GetString("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	if err := zlog.SetLevel(level); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключиться к базе и накатить миграции
	dbConn, err := repository.ConnectWithRetries(appConfig, 5, 10*time.Second)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("DB is unreachable")
	}
	migrations := appConfig.GetString("MIGRATIONS_PATH")
	if migrations == "" {
		migrations = "./migrations"
	}
	if err := repository.MigrateWithRetries(dbConn.Master, migrations, 10, 15*time.Second); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to apply migrations")
	}
	repo := pgrepo.New(dbConn)

	// подключиться к хранилищу
	strg, err := storage.NewPhotoStorage(ctx, appConfig, 10*time.Second)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Storage is unreachable")
	}

	// сервис распознавания
	awsCfg, err := awsconf.Load(ctx, appConfig)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to load AWS config")
	}
	det := detector.New(awsCfg)

	// очередь для воркера превью опциональна
	pub, producer := newPublisher(ctx, appConfig)

	// создаем экземпляр сервиса
	svc := service.NewPhotoService(repo, strg, det, pub, service.OptionsFromConfig(appConfig))
	// cоздаем экземпляр хендлера HTTP
	handlers := transport.NewPhotoHandler(svc)
	// сетапим сервер
	mode := appConfig.GetString("GIN_MODE")
	engine := ginext.New(mode)

	engine.GET("/ping", handlers.Ping)
	engine.GET("/users", handlers.ListUsers)
	engine.GET("/images", handlers.ListAssets)                          // все ассеты или ассеты владельца
	engine.DELETE("/images", handlers.Clear)                            // полная очистка
	engine.POST("/image/:userid", handlers.Upload)                      // загрузка
	engine.GET("/image/:assetid", handlers.Retrieve)                    // скачать исходник
	engine.GET("/image/:assetid/thumbnail", handlers.RetrieveThumbnail) // скачать превью
	engine.GET("/image_labels/:assetid", handlers.ListLabels)           // метки ассета
	engine.GET("/images_with_label/:label", handlers.Search)            // поиск по подстроке метки

	port := appConfig.GetString("APP_PORT")
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mwlogger.NewMWLogger(engine),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Server launch
	go func() {
		zlog.Logger.Info().Str("addr", srv.Addr).Msg("Server running")
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				zlog.Logger.Info().Msg("Server gracefully stopping...")
			default:
				zlog.Logger.Error().Err(err).Msg("Server stopped")
				stop()
			}
		}
	}()

	// ждем отмены контекста для запуска грейсфул закрытия соединений бд и кафки
	<-ctx.Done()

	shutdown(srv, producer, dbConn)
	zlog.Logger.Info().Msg("Exiting API...")
}

func newPublisher(ctx context.Context, appConfig *config.Config) (service.EventPublisher, *wbfkafka.Producer) {
	broker := appConfig.GetString("KAFKA_BROKER")
	topic := appConfig.GetString("KAFKA_TOPIC")
	if broker == "" || topic == "" {
		zlog.Logger.Warn().Msg("Kafka is not configured, thumbnails will not be rendered")
		return events.NoopPublisher{}, nil
	}

	// ждем пока кафка раздуплится
	if err := kafka.WaitKafkaReady(ctx, broker, 10*time.Second); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Kafka is unreachable")
	}
	if err := kafka.InitKafkaTopics(ctx, broker, 10*time.Second, topic); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("Failed to create kafka topics")
	}

	producer := wbfkafka.NewProducer([]string{broker}, topic)
	return events.NewPublisher(producer), producer
}

func shutdown(srv *http.Server, producer *wbfkafka.Producer, dbConn *dbpg.DB) {
	zlog.Logger.Info().Msg("Interrupt received!!! Starting shutdown sequence...")

	shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to shutdown HTTP-server correctly")
	}

	// Closing Kafka connection:
	if producer != nil {
		if err := producer.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("Failed to close Kafka-writer")
		}
		zlog.Logger.Info().Msg("Kafka-producer connection closed.")
	}

	// Closing DB connection
	if err := dbConn.Master.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to close DB-conn correctly")
		return
	}
	zlog.Logger.Info().Msg("DBconn closed")
}
