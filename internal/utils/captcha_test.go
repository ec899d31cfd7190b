package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestCaptchaValidate(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		_ = r.ParseForm()
		gotForm = map[string]string{
			"secret": r.PostForm.Get("secret"),
			"token":  r.PostForm.Get("token"),
			"ip":     r.PostForm.Get("ip"),
		}
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("token") == "good" {
			_, _ = w.Write([]byte(`{"status":"ok","message":"","host":"vote.example.org"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"failed","message":"Token invalid or expired."}`))
	}))
	defer srv.Close()

	c := NewCaptchaClient("server-key", srv.URL, time.Second)

	res, err := c.Validate(context.Background(), "good", "10.1.2.3")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.OK() || res.Host != "vote.example.org" {
		t.Errorf("result = %+v", res)
	}
	if gotForm["secret"] != "server-key" || gotForm["token"] != "good" || gotForm["ip"] != "10.1.2.3" {
		t.Errorf("form = %v", gotForm)
	}

	res, err = c.Validate(context.Background(), "bad", "")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.OK() || res.Message != "Token invalid or expired." {
		t.Errorf("result = %+v", res)
	}
}

func TestCaptchaValidate_Unavailable(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"garbage body": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			_, err := NewCaptchaClient("k", srv.URL, time.Second).Validate(context.Background(), "t", "")
			if !errors.Is(err, ErrCaptchaUnavailable) {
				t.Fatalf("err = %v, want ErrCaptchaUnavailable", err)
			}
		})
	}

	t.Run("connection refused", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewCaptchaClient("k", url, time.Second).Validate(context.Background(), "t", "")
		if !errors.Is(err, ErrCaptchaUnavailable) {
			t.Fatalf("err = %v, want ErrCaptchaUnavailable", err)
		}
	})
}

func TestCaptchaResultOK_Nil(t *testing.T) {
	var r *CaptchaResult
	if r.OK() {
		t.Fatal("nil result reported ok")
	}
}
