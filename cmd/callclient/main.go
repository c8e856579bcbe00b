// Command callclient requests a call from a running service and saves the WAV.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"voice-outbound-service/internal/service/audio"
)

type callRequest struct {
	Name               string  `json:"name"`
	Company            string  `json:"company"`
	TriggerType        string  `json:"triggerType,omitempty"`
	TriggerDescription string  `json:"triggerDescription"`
	Language           string  `json:"language,omitempty"`
	Voice              string  `json:"voice,omitempty"`
	Speed              float64 `json:"speed,omitempty"`
}

type callResponse struct {
	RunID    string `json:"runId"`
	Language string `json:"language"`
	Script   struct {
		Introduction string `json:"introduction"`
		CallToAction string `json:"callToAction"`
	} `json:"script"`
	Audio struct {
		Format          string  `json:"format"`
		DurationSeconds float64 `json:"durationSeconds"`
		Data            []byte  `json:"data"`
	} `json:"audio"`
}

type errorResponse struct {
	Error string `json:"error"`
	Stage string `json:"stage"`
}

// requestCall posts req and returns the decoded success body. Non-200
// responses are returned as errors naming the failed stage.
func requestCall(ctx context.Context, client *http.Client, server string, req callRequest) (*callResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/v1/calls", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			if e.Stage != "" {
				return nil, fmt.Errorf("HTTP %d at %s: %s", resp.StatusCode, e.Stage, e.Error)
			}
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, e.Error)
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out callResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func main() {
	server := flag.String("server", "http://localhost:8080", "service base URL")
	name := flag.String("name", "Jean Dupont", "contact full name")
	company := flag.String("company", "Acme", "contact company")
	triggerType := flag.String("trigger-type", "expansion", "trigger category")
	trigger := flag.String("trigger", "Opening an office in Lyon", "trigger description")
	language := flag.String("language", "auto", "auto, fr, en, es, de or it")
	voice := flag.String("voice", "", "voice ID")
	speed := flag.Float64("speed", 0, "speech speed")
	out := flag.String("out", "call-"+time.Now().Format("150405")+".wav", "where to write the WAV")
	timeout := flag.Duration("timeout", 3*time.Minute, "request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	log.Printf("Requesting call for %s @ %s from %s", *name, *company, *server)
	start := time.Now()

	resp, err := requestCall(ctx, &http.Client{}, *server, callRequest{
		Name:               *name,
		Company:            *company,
		TriggerType:        *triggerType,
		TriggerDescription: *trigger,
		Language:           *language,
		Voice:              *voice,
		Speed:              *speed,
	})
	if err != nil {
		log.Fatalf("Call failed: %v", err)
	}

	header, err := audio.ParseHeader(resp.Audio.Data)
	if err != nil {
		log.Fatalf("Invalid audio: %v", err)
	}
	log.Printf("WAV: channels=%d sampleRate=%d bitsPerSample=%d dataBytes=%d",
		header.Channels, header.SampleRate, header.BitsPerSample(), header.DataSize)

	if err := os.WriteFile(*out, resp.Audio.Data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}

	log.Printf("Run %s [%s] in %v", resp.RunID, resp.Language, time.Since(start).Round(time.Millisecond))
	log.Printf("Intro: %s", resp.Script.Introduction)
	log.Printf("CTA:   %s", resp.Script.CallToAction)
	log.Printf("Wrote %s (%.2fs)", *out, resp.Audio.DurationSeconds)
}
