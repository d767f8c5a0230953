// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Minetec

package fascb

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewClient(strings.TrimPrefix(ts.URL, "http://"), "FasAdmin", "Minetec123#")
}

func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	return m
}

func TestAuthDigest(t *testing.T) {
	sum := md5.Sum([]byte("FasAdmin:Minetec123#"))
	want := hex.EncodeToString(sum[:])

	got := AuthDigest("FasAdmin", "Minetec123#")
	if got != want {
		t.Errorf("AuthDigest = %q, want %q", got, want)
	}
	if !regexp.MustCompile(`^[0-9a-f]{32}$`).MatchString(got) {
		t.Errorf("AuthDigest = %q, want 32 lowercase hex chars", got)
	}
	if AuthDigest("other", "pair") == got {
		t.Error("different credentials produced the same digest")
	}
}

func TestLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "pong v2.4")
	})
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if body["username"] != "FasAdmin" {
			t.Errorf("auth username = %v, want FasAdmin", body["username"])
		}

		key, hasKey := body["key"].(string)
		if !hasKey {
			json.NewEncoder(w).Encode(map[string]any{
				"username":  body["username"],
				"state":     body["state"],
				"challenge": "c4f3",
			})
			return
		}

		token := ""
		if key == AuthDigest("FasAdmin", "Minetec123#") {
			token = "tok-1"
		}
		json.NewEncoder(w).Encode(map[string]any{"token": token})
	})

	c := newTestClient(t, mux)
	token, err := c.Login(context.Background())
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != "tok-1" {
		t.Errorf("token = %q, want tok-1", token)
	}
}

func TestLoginUnreachable(t *testing.T) {
	authCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "service rebooting")
	})
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		authCalls++
	})

	c := newTestClient(t, mux)
	token, err := c.Login(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("Login err = %v, want ErrUnreachable", err)
	}
	if token != "" {
		t.Errorf("token = %q after failed probe, want empty", token)
	}
	if authCalls != 0 {
		t.Errorf("auth endpoint hit %d times after failed probe, want 0", authCalls)
	}
}

func TestLoginEmptyChallenge(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "pong")
	})
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"challenge": ""})
	})

	c := newTestClient(t, mux)
	if _, err := c.Login(context.Background()); !errors.Is(err, ErrProtocol) {
		t.Errorf("Login err = %v, want ErrProtocol", err)
	}
}

func TestLoginNoToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "pong")
	})
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if _, hasKey := body["key"]; !hasKey {
			json.NewEncoder(w).Encode(map[string]any{"challenge": "c4f3"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"token": ""})
	})

	c := newTestClient(t, mux)
	if _, err := c.Login(context.Background()); !errors.Is(err, ErrAuth) {
		t.Errorf("Login err = %v, want ErrAuth", err)
	}
}

func TestSendOperation(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/operation", func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(t, r)
		if body["request"] != "refill_drf" {
			t.Errorf("request kind = %v, want refill_drf", body["request"])
		}
		if body["token"] != "tok-1" {
			t.Errorf("token = %v, want tok-1", body["token"])
		}
		if body["refill_op_workinghours"] != float64(200) {
			t.Errorf("working hours = %v, want 200", body["refill_op_workinghours"])
		}
		json.NewEncoder(w).Encode(map[string]any{"response": "refill_drf"})
	})

	c := newTestClient(t, mux)
	resp, err := c.RefillStart(context.Background(), "tok-1", 200)
	if err != nil {
		t.Fatalf("RefillStart failed: %v", err)
	}
	if resp.Response != "refill_drf" {
		t.Errorf("response = %q, want refill_drf", resp.Response)
	}
	if resp.Invalid() {
		t.Error("Invalid() = true for accepted response")
	}
}

func TestSendOperationInvalidIsData(t *testing.T) {
	tests := []struct {
		name         string
		discriminant string
	}{
		{"invalid", RespInvalid},
		{"invalid token", RespInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("/operation", func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{
					"response": tt.discriminant,
					"message":  "no refill in progress",
				})
			})

			c := newTestClient(t, mux)
			resp, err := c.RefillRequest(context.Background(), "tok-1")
			if err != nil {
				t.Fatalf("rejection must not be an error, got %v", err)
			}
			if !resp.Invalid() {
				t.Errorf("Invalid() = false for %q", tt.discriminant)
			}
			if resp.Message != "no refill in progress" {
				t.Errorf("Message = %q, want surfaced message", resp.Message)
			}
		})
	}
}

func TestSendOperationMissingDiscriminant(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/operation", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "ok"})
	})

	c := newTestClient(t, mux)
	if _, err := c.QueryRefillParams(context.Background(), "tok-1"); !errors.Is(err, ErrProtocol) {
		t.Errorf("err = %v, want ErrProtocol", err)
	}
}

func TestUploadImage(t *testing.T) {
	uploads := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		uploads++
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("multipart file field: %v", err)
		}
		defer f.Close()
		content, _ := io.ReadAll(f)
		if string(content) != "jpeg bytes" {
			t.Errorf("uploaded content = %q", content)
		}
		fmt.Fprint(w, "stored")
	})

	path := filepath.Join(t.TempDir(), "refill.jpg")
	if err := os.WriteFile(path, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := newTestClient(t, mux)
	if err := c.UploadImage(context.Background(), path); err != nil {
		t.Fatalf("UploadImage failed: %v", err)
	}
	if uploads != 1 {
		t.Errorf("upload endpoint hit %d times, want 1", uploads)
	}
}

func TestUploadImageMissingIsSkip(t *testing.T) {
	uploads := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		uploads++
	})

	c := newTestClient(t, mux)
	if err := c.UploadImage(context.Background(), filepath.Join(t.TempDir(), "missing.jpg")); err != nil {
		t.Fatalf("missing image must be a skip, got %v", err)
	}
	if uploads != 0 {
		t.Errorf("upload endpoint hit %d times for missing image, want 0", uploads)
	}
}
