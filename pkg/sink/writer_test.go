package sink

import (
	"bytes"
	"context"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestWriter_Deliver(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	first := testReport("1", "web")
	second := testReport("2", "ping")
	if err := w.Deliver(context.Background(), first, second); err != nil {
		t.Fatalf("Writer.Deliver() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Writer.Close() error = %v", err)
	}

	dec := yaml.NewDecoder(&buf)
	var docs []reportPayload
	for {
		var p reportPayload
		if err := dec.Decode(&p); err != nil {
			break
		}
		docs = append(docs, p)
	}

	if len(docs) != 2 {
		t.Fatalf("decoded %d documents, want 2", len(docs))
	}
	if docs[0].AssetID != "1" || docs[0].Check != "web" {
		t.Errorf("first document = %s/%s, want 1/web", docs[0].AssetID, docs[0].Check)
	}
	if docs[1].AssetID != "2" || docs[1].Check != "ping" {
		t.Errorf("second document = %s/%s, want 2/ping", docs[1].AssetID, docs[1].Check)
	}
	want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Unix()
	if docs[0].Framework.Timestamp != want {
		t.Errorf("framework timestamp = %d, want %d", docs[0].Framework.Timestamp, want)
	}
}

func TestWriter_CloseWithoutReports(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Close(); err != nil {
		t.Fatalf("Writer.Close() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("unused writer emitted %q", buf.String())
	}
}
