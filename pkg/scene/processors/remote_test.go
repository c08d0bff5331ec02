package processors

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrab0/scenegraph/pkg/scene"
)

const parseReply = `{
  "sentences": [{
    "text": "A cube is on the table.",
    "tokens": [
      {"text": "A", "lemma": "a", "pos": "DET", "dep": "det", "head": 1},
      {"text": "cube", "lemma": "cube", "pos": "NOUN", "dep": "nsubj", "head": 2},
      {"text": "is", "lemma": "be", "pos": "AUX", "dep": "ROOT", "head": 2},
      {"text": "on", "lemma": "on", "pos": "ADP", "dep": "prep", "head": 2},
      {"text": "the", "lemma": "the", "pos": "DET", "dep": "det", "head": 5},
      {"text": "table", "lemma": "", "pos": "NOUN", "dep": "pobj", "head": 3},
      {"text": ".", "lemma": ".", "pos": "PUNCT", "dep": "punct", "head": 2}
    ],
    "noun_chunks": [{"start": 0, "end": 2, "root": 1}, {"start": 4, "end": 6, "root": 5}]
  }]
}`

func fastParser(url string, retries int) *RemoteParser {
	p := NewRemoteParser(url, retries)
	p.client.RetryWaitMin = time.Millisecond
	p.client.RetryWaitMax = 5 * time.Millisecond
	p.client.Logger = nil
	return p
}

func TestRemoteParserParse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/parse", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "A cube is on the table.", body["text"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(parseReply))
	}))
	defer srv.Close()

	doc, err := fastParser(srv.URL+"/", 0).Parse(context.Background(), "A cube is on the table.")
	require.NoError(t, err)
	require.Len(t, doc.Sentences, 1)

	sent := doc.Sentences[0]
	assert.Equal(t, -1, sent.Tokens[2].Head, "self-headed token becomes the root")
	assert.Equal(t, 2, sent.Tokens[1].Head)
	assert.Equal(t, "table", sent.Tokens[5].Lemma)
	assert.Equal(t, []scene.NounChunk{{Start: 0, End: 2, Root: 1}, {Start: 4, End: 6, Root: 5}}, sent.Chunks)
	assert.Equal(t, "A cube is on the table.", doc.FullText())
}

func TestRemoteParserRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(parseReply))
	}))
	defer srv.Close()

	doc, err := fastParser(srv.URL, 3).Parse(context.Background(), "A cube is on the table.")
	require.NoError(t, err)
	assert.Len(t, doc.Sentences, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRemoteParserErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad input", http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := fastParser(srv.URL, 0).Parse(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "bad input")
}

func TestRemoteParserMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	_, err := fastParser(srv.URL, 0).Parse(context.Background(), "x")
	assert.ErrorContains(t, err, "decode")
}

func TestRemoteParserLogsRequestsAtDebug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(parseReply))
	}))
	defer srv.Close()

	p := NewRemoteParser(srv.URL, 0)
	require.IsType(t, leveledLogger{}, p.client.Logger)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	p.client.Logger = leveledLogger{logger}

	_, err := p.Parse(context.Background(), "A cube is on the table.")
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.Equal(t, logrus.DebugLevel, e.Level, e.Message)
	}
	assert.Equal(t, "performing request", entries[0].Message)
	assert.Equal(t, http.MethodPost, entries[0].Data["method"])
}
