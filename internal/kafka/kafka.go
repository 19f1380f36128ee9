// Package kafka provides methods for initiating kafka-topics for the app and a kafka readiness-probing
package kafka

import (
	"context"
	"errors"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/zlog"
)

// InitKafkaTopics - creates topics in kafka, existing topics count as created
func InitKafkaTopics(ctx context.Context, brokerAddr string, delay time.Duration, topics ...string) error {
	client := &kafkago.Client{
		Addr:    kafkago.TCP(brokerAddr),
		Timeout: 10 * time.Second,
	}

	req := kafkago.CreateTopicsRequest{
		Topics: make([]kafkago.TopicConfig, 0, len(topics)),
	}

	for _, t := range topics {
		topic := kafkago.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
		req.Topics = append(req.Topics, topic)
	}

	for {
		resp, err := client.CreateTopics(ctx, &req)
		if err == nil {
			topicErrs := failedTopics(resp)
			if len(topicErrs) == 0 {
				zlog.Logger.Info().Strs("topics", topics).Msg("All topics created successfully!")
				return nil
			}
			err = errors.Join(topicErrs...)
		}
		zlog.Logger.Warn().Err(err).Dur("wait", delay).Msg("Failed to create kafka topics")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func failedTopics(resp *kafkago.CreateTopicsResponse) []error {
	var res []error
	for _, v := range resp.Errors {
		if v == nil || errors.Is(v, kafkago.TopicAlreadyExists) {
			continue
		}
		res = append(res, v)
	}
	return res
}

// WaitKafkaReady - timeout given to kafka-service for getting fully functional
func WaitKafkaReady(ctx context.Context, brokerAddr string, delay time.Duration) error {
	for {
		conn, err := kafkago.DialContext(ctx, "tcp", brokerAddr)
		if err == nil {
			if errConn := conn.Close(); errConn != nil {
				zlog.Logger.Warn().Err(errConn).Msg("Failed to close connection after testing Kafka readyness")
			}
			zlog.Logger.Info().Str("broker", brokerAddr).Msg("Kafka is ready!")
			return nil
		}
		zlog.Logger.Warn().Err(err).Dur("wait", delay).Msg("Kafka not ready, retrying...")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
