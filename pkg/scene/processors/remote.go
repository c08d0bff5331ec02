package processors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/andrab0/scenegraph/pkg/scene"
)

// RemoteParser calls an external dependency-parsing service. The service
// takes {"text": ...} on POST /parse and answers with sentences of tokens
// whose head is a sentence-local index; a token heading itself is the root.
type RemoteParser struct {
	baseURL string
	client  *retryablehttp.Client
	logger  *logrus.Logger
}

type remoteToken struct {
	Text  string `json:"text"`
	Lemma string `json:"lemma"`
	POS   string `json:"pos"`
	Dep   string `json:"dep"`
	Head  int    `json:"head"`
}

type remoteSentence struct {
	Text   string            `json:"text"`
	Tokens []remoteToken     `json:"tokens"`
	Chunks []scene.NounChunk `json:"noun_chunks"`
}

type remoteResponse struct {
	Sentences []remoteSentence `json:"sentences"`
}

// NewRemoteParser creates a parser client for the service at baseURL
func NewRemoteParser(baseURL string, retries int) *RemoteParser {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	client := retryablehttp.NewClient()
	client.RetryMax = retries
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = leveledLogger{logger}

	return &RemoteParser{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// Parse implements scene.Parser
func (p *RemoteParser) Parse(ctx context.Context, text string) (*scene.Document, error) {
	timer := prometheus.NewTimer(parseDuration.WithLabelValues("remote"))
	defer timer.ObserveDuration()

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("failed to encode parse request: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/parse", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create parse request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parser service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("parser service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var decoded remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode parser response: %w", err)
	}

	doc := &scene.Document{Text: text}
	for _, rs := range decoded.Sentences {
		sent := scene.Sentence{Text: rs.Text, Chunks: rs.Chunks}
		for i, rt := range rs.Tokens {
			head := rt.Head
			if head == i || head < 0 || head >= len(rs.Tokens) {
				head = -1
			}
			lemma := rt.Lemma
			if lemma == "" {
				lemma = strings.ToLower(rt.Text)
			}
			sent.Tokens = append(sent.Tokens, scene.Token{
				Text:  rt.Text,
				Lemma: lemma,
				POS:   rt.POS,
				Dep:   rt.Dep,
				Head:  head,
			})
		}
		doc.Sentences = append(doc.Sentences, sent)
	}

	p.logger.WithField("sentences_count", len(doc.Sentences)).Debug("Remote parse completed")
	return doc, nil
}

// leveledLogger routes retryablehttp messages to logrus at their own level
type leveledLogger struct {
	logger *logrus.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) fields(keysAndValues []interface{}) logrus.Fields {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(l.fields(keysAndValues)).Error(msg)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(l.fields(keysAndValues)).Info(msg)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(l.fields(keysAndValues)).Debug(msg)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(l.fields(keysAndValues)).Warn(msg)
}
