package utils

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSMSAeroSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/sms/send" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "ops@example.org" || pass != "api-key" {
			t.Errorf("basic auth = %q/%q/%v", user, pass, ok)
		}
		q := r.URL.Query()
		if q.Get("number") != "79990001234" {
			t.Errorf("number = %q", q.Get("number"))
		}
		if q.Get("sign") != "SMS Aero" || q.Get("channel") != "DIRECT" {
			t.Errorf("sign=%q channel=%q", q.Get("sign"), q.Get("channel"))
		}
		if q.Get("text") != "Код подтверждения: 123456" {
			t.Errorf("text = %q", q.Get("text"))
		}
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":42,"status":0,"number":"79990001234"}}`))
	}))
	defer srv.Close()

	c := NewSMSAeroClient("ops@example.org", "api-key", "SMS Aero", "", srv.URL+"/v2/", time.Second, false, nil)
	if err := c.Send(context.Background(), "+79990001234", "Код подтверждения: 123456"); err != nil {
		t.Fatalf("Send: %v", err)
	}
}

func TestSMSAeroSend_Failures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"unauthorized": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
		"not successful": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success":false,"message":"Validation error."}`))
		},
		"bad json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(h)
			defer srv.Close()

			c := NewSMSAeroClient("e", "k", "s", "", srv.URL, time.Second, false, nil)
			if err := c.Send(context.Background(), "+79990001234", "x"); !errors.Is(err, ErrSMSGateway) {
				t.Fatalf("err = %v, want ErrSMSGateway", err)
			}
		})
	}
}

func TestSMSAeroSend_DryRun(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	for _, c := range []*SMSAeroClient{
		NewSMSAeroClient("e", "k", "s", "", srv.URL, time.Second, true, nil),
		NewSMSAeroClient("e", "", "s", "", srv.URL, time.Second, false, nil),
		NewSMSAeroClient("e", "dry-run", "s", "", srv.URL, time.Second, false, nil),
	} {
		if err := c.Send(context.Background(), "+79990001234", "x"); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}
	if called {
		t.Fatal("dry-run reached the gateway")
	}
}
