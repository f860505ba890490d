package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/deusflow/linea/internal/news"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var sample = []news.Article{
	{Source: "a", Title: "Museum", Link: "https://x.example/1", Score: 0.4, Origin: news.International},
	{Source: "b", Title: "No link", Link: news.DefaultLink, Origin: news.National},
	{Source: "b", Title: "Gallery", Link: "https://x.example/2", Score: 0.2, Origin: news.National},
}

type esRecorder struct {
	mu    sync.Mutex
	paths []string
	docs  []Document
}

func newESServer(t *testing.T, rec *esRecorder, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodPut || r.Method == http.MethodPost {
			var doc Document
			_ = json.NewDecoder(r.Body).Decode(&doc)
			rec.mu.Lock()
			rec.paths = append(rec.paths, r.URL.Path)
			rec.docs = append(rec.docs, doc)
			rec.mu.Unlock()
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestElasticsearchPublish(t *testing.T) {
	rec := &esRecorder{}
	srv := newESServer(t, rec, http.StatusCreated)

	es, err := NewElasticsearch(srv.URL, "articles", discard())
	require.NoError(t, err)
	require.NoError(t, es.Ping(context.Background()))
	require.NoError(t, es.Publish(context.Background(), "run-1", sample))

	require.Len(t, rec.docs, 2)
	require.Equal(t, "/articles/_doc/"+DocumentID("https://x.example/1"), rec.paths[0])
	require.Equal(t, "run-1", rec.docs[0].RunID)
	require.Equal(t, 1, rec.docs[0].Rank)
	require.Equal(t, "international", rec.docs[0].Origin)
	require.Equal(t, 3, rec.docs[1].Rank)
	require.Equal(t, "Gallery", rec.docs[1].Title)
}

func TestElasticsearchPublishError(t *testing.T) {
	srv := newESServer(t, &esRecorder{}, http.StatusBadRequest)

	es, err := NewElasticsearch(srv.URL, "articles", discard())
	require.NoError(t, err)
	err = es.Publish(context.Background(), "run-1", sample)
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "index doc failed"))
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublish(t *testing.T) {
	w := &fakeWriter{}
	k := newKafka(w, "articles_ranked", discard())

	require.NoError(t, k.Publish(context.Background(), "run-7", sample))
	require.Len(t, w.msgs, 3)
	require.Equal(t, "https://x.example/1", string(w.msgs[0].Key))
	require.Equal(t, []kafka.Header{{Key: "run_id", Value: []byte("run-7")}}, w.msgs[0].Headers)

	var doc Document
	require.NoError(t, json.Unmarshal(w.msgs[2].Value, &doc))
	require.Equal(t, "Gallery", doc.Title)
	require.Equal(t, 3, doc.Rank)

	require.NoError(t, k.Publish(context.Background(), "run-8", nil))
	require.Len(t, w.msgs, 3)

	require.NoError(t, k.Close())
	require.True(t, w.closed)
}

func TestKafkaPublishError(t *testing.T) {
	k := newKafka(&fakeWriter{err: errors.New("no brokers")}, "t", discard())
	require.Error(t, k.Publish(context.Background(), "run", sample))
}

type failingSink struct{ Nop }

func (failingSink) Publish(context.Context, string, []news.Article) error {
	return errors.New("sink down")
}

func TestMultiPublishesToAll(t *testing.T) {
	w := &fakeWriter{}
	m := Multi{failingSink{}, newKafka(w, "t", discard()), Nop{}}

	err := m.Publish(context.Background(), "run", sample)
	require.EqualError(t, err, "sink down")
	require.Len(t, w.msgs, 3)
	require.NoError(t, m.Close())
}

func TestDocumentIDStable(t *testing.T) {
	require.Equal(t, DocumentID("x"), DocumentID("x"))
	require.NotEqual(t, DocumentID("x"), DocumentID("y"))
	require.Len(t, DocumentID("x"), 40)
}
