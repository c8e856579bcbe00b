package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voice-outbound-service/internal/models"
	"voice-outbound-service/internal/service/pipeline"
	"voice-outbound-service/internal/service/remote"
	"voice-outbound-service/internal/service/synthesis"
)

type fakeService struct {
	result *models.CallResult
	err    error
	ready  bool
	inputs []pipeline.Input
}

func (f *fakeService) Run(_ context.Context, in pipeline.Input) (*models.CallResult, error) {
	f.inputs = append(f.inputs, in)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return f.result, f.err
}

func (f *fakeService) Voices(lang models.Language) []synthesis.Voice {
	return synthesis.FilterVoices([]synthesis.Voice{
		{ID: "Elise", Language: models.LanguageFrench},
		{ID: "Emma", Language: models.LanguageEnglish},
	}, lang)
}

func (f *fakeService) Ready() bool { return f.ready }

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/calls", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateCall_Success(t *testing.T) {
	svc := &fakeService{result: &models.CallResult{
		RunID:    "run-1",
		Contact:  models.Contact{FullName: "Jean Dupont", Company: "Acme"},
		Script:   models.Script{Introduction: "Bonjour Jean,", Objections: []string{}},
		Language: models.LanguageFrench,
		Provider: "mock",
		Audio:    models.AudioArtifact{Data: []byte("RIFF"), Format: models.AudioFormatWAV, DurationSeconds: 1.5},
	}}
	h := NewRouter(svc)

	rec := post(t, h, `{"name":"Jean Dupont","company":"Acme","triggerType":"expansion","triggerDescription":"Lyon","language":"FR","speed":1.2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var resp CallResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RunID != "run-1" || string(resp.Audio.Data) != "RIFF" || resp.Audio.Format != "wav" {
		t.Errorf("unexpected response %+v", resp)
	}

	in := svc.inputs[0]
	if in.Language != models.LanguageFrench || in.Speed != 1.2 || in.TriggerType != "expansion" {
		t.Errorf("unexpected pipeline input %+v", in)
	}
}

func TestCreateCall_MissingFields(t *testing.T) {
	rec := post(t, NewRouter(&fakeService{}), `{"name":"Jean"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp ErrorResponse
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Missing) != 2 || resp.Missing[0] != "company" {
		t.Errorf("expected missing company and triggerDescription, got %+v", resp)
	}
}

func TestCreateCall_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"name":`},
		{"unsupported language", `{"name":"a","company":"b","triggerDescription":"c","language":"pt"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{}
			rec := post(t, NewRouter(svc), tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rec.Code)
			}
			if len(svc.inputs) != 0 {
				t.Error("expected the pipeline not to run")
			}
		})
	}
}

func TestCreateCall_StageErrors(t *testing.T) {
	valid := `{"name":"Jean","company":"Acme","triggerDescription":"x"}`
	tests := []struct {
		name  string
		err   error
		code  int
		stage string
	}{
		{
			"synthesis timeout",
			&pipeline.StageError{Stage: pipeline.StageSynthesizeAudio, Err: remote.New(remote.KindTimeout, "gradium", "tts", "timeout after 60s")},
			http.StatusBadGateway,
			"synthesize_audio",
		},
		{
			"invalid credential",
			&pipeline.StageError{Stage: pipeline.StageGenerateScript, Err: remote.New(remote.KindConfig, "kimi", "chat completion", "invalid API key")},
			http.StatusInternalServerError,
			"generate_script",
		},
		{
			"unclassified",
			context.Canceled,
			http.StatusInternalServerError,
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(t, NewRouter(&fakeService{err: tt.err}), valid)
			if rec.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rec.Code)
			}
			var resp ErrorResponse
			_ = json.NewDecoder(rec.Body).Decode(&resp)
			if resp.Stage != tt.stage || resp.Error != tt.err.Error() {
				t.Errorf("unexpected body %+v", resp)
			}
		})
	}
}

func TestListVoices(t *testing.T) {
	h := NewRouter(&fakeService{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/voices?language=fr", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Voices []synthesis.Voice `json:"voices"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Voices) != 1 || resp.Voices[0].ID != "Elise" {
		t.Errorf("expected only Elise, got %+v", resp.Voices)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/voices", nil))
	_ = json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Voices) != 2 {
		t.Errorf("expected all voices without a language, got %d", len(resp.Voices))
	}
}

func TestHealthAndReady(t *testing.T) {
	svc := &fakeService{}
	h := NewRouter(svc)

	for path, want := range map[string]int{"/health": http.StatusOK, "/ready": http.StatusServiceUnavailable} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Errorf("%s: expected %d, got %d", path, want, rec.Code)
		}
	}

	svc.ready = true
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected ready, got %d", rec.Code)
	}
}
