package objectstore

import (
	"context"
	"strings"
	"testing"
	"time"

	"fieldsync/internal/logging"
	"fieldsync/internal/testsupport"
)

func TestNewAppliesStorageTimeouts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Storage.UploadTimeout = 120
	cfg.Storage.RequestTimeout = 7

	client, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.uploadTimeout != 120*time.Second {
		t.Fatalf("unexpected upload timeout: %s", client.uploadTimeout)
	}
	if client.requestTimeout != 7*time.Second {
		t.Fatalf("unexpected request timeout: %s", client.requestTimeout)
	}
}

func TestObjectKeyPrefixing(t *testing.T) {
	client := &Client{bucket: "fieldsync", prefix: "store_images"}

	cases := map[string]string{
		"store_images/store-1/a.jpg":  "store_images/store-1/a.jpg",
		"/store_images/store-1/a.jpg": "store_images/store-1/a.jpg",
		"store-1/a.jpg":               "store_images/store-1/a.jpg",
	}
	for input, want := range cases {
		if got := client.objectKey(input); got != want {
			t.Fatalf("objectKey(%q) = %q, want %q", input, got, want)
		}
	}
}

// Presigning is pure client-side signature math, so it works without a
// reachable endpoint.
func TestPresignedURLSignsOffline(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client, err := New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	url, err := client.PresignedURL(context.Background(), "store_images/store-1/a.jpg", 15*time.Minute)
	if err != nil {
		t.Fatalf("PresignedURL: %v", err)
	}
	if !strings.Contains(url, "storage.test") || !strings.Contains(url, "X-Amz-Signature") {
		t.Fatalf("unexpected presigned url: %s", url)
	}
}

func TestContentTypeFor(t *testing.T) {
	if ct := contentTypeFor("/spool/a.jpg"); ct != "image/jpeg" {
		t.Fatalf("unexpected content type: %s", ct)
	}
	if ct := contentTypeFor("/spool/blob"); ct != "application/octet-stream" {
		t.Fatalf("unexpected fallback content type: %s", ct)
	}
}
