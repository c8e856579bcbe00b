// Command callwatch tails the call event topics and, optionally, relays them
// to browsers over WebSocket.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"voice-outbound-service/internal/models"
)

// callEvent is the union of the generated and failed event payloads.
type callEvent struct {
	EventType       string  `json:"eventType"`
	RunID           string  `json:"runId"`
	ContactName     string  `json:"contactName"`
	Company         string  `json:"company"`
	Language        string  `json:"language,omitempty"`
	Provider        string  `json:"provider,omitempty"`
	Model           string  `json:"model,omitempty"`
	AudioBytes      int     `json:"audioBytes,omitempty"`
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	Stage           string  `json:"stage,omitempty"`
	Error           string  `json:"error,omitempty"`
	Timestamp       int64   `json:"timestamp"`
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// describe renders one event as a log line.
func describe(ev callEvent) string {
	who := fmt.Sprintf("%s @ %s", ev.ContactName, ev.Company)
	switch ev.EventType {
	case models.EventCallGenerated:
		return fmt.Sprintf("OK   %s %s [%s] %s/%s %.1fs %d bytes",
			ev.RunID, who, ev.Language, ev.Provider, ev.Model, ev.DurationSeconds, ev.AudioBytes)
	case models.EventCallFailed:
		return fmt.Sprintf("FAIL %s %s at %s: %s", ev.RunID, who, ev.Stage, truncate(ev.Error, 120))
	default:
		return fmt.Sprintf("?    %s %s (%s)", ev.RunID, who, ev.EventType)
	}
}

func consumeKafka(ctx context.Context, hub *Hub, brokers []string, topic string, since time.Duration) {
	// Partition reader without a consumer group works through port-forwards.
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	if err := reader.SetOffsetAt(ctx, time.Now().Add(-since)); err != nil {
		log.Printf("Could not rewind %s: %v", topic, err)
	}
	log.Printf("Consuming from Kafka topic: %s partition 0 (last %s)", topic, since)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Kafka read error on %s: %v", topic, err)
			time.Sleep(time.Second)
			continue
		}

		var ev callEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Printf("JSON unmarshal error on %s: %v", topic, err)
			continue
		}

		log.Print(describe(ev))
		if hub != nil {
			hub.Broadcast(ev)
		}
	}
}

func main() {
	port := flag.String("port", "", "serve a WebSocket feed on this port; empty disables it")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topicGenerated := flag.String("topic-generated", models.EventCallGenerated, "generated call topic")
	topicFailed := flag.String("topic-failed", models.EventCallFailed, "failed call topic")
	since := flag.Duration("since", time.Hour, "replay events newer than this")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var hub *Hub
	if *port != "" {
		hub = newHub()
		go hub.run(ctx)

		mux := http.NewServeMux()
		mux.HandleFunc("/ws", wsHandler(hub))
		srv := &http.Server{Addr: ":" + *port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			log.Printf("WebSocket feed on ws://localhost:%s/ws", *port)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Server error: %v", err)
			}
		}()
		defer srv.Close()
	}

	list := strings.Split(*brokers, ",")
	done := make(chan struct{}, 2)
	for _, topic := range []string{*topicGenerated, *topicFailed} {
		go func() {
			consumeKafka(ctx, hub, list, topic, *since)
			done <- struct{}{}
		}()
	}
	<-done
	<-done
}
