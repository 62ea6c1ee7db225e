package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMSNotifierNotConfigured(t *testing.T) {
	tests := []struct {
		name      string
		cfg       SMSConfig
		recipient string
	}{
		{"empty config", SMSConfig{}, "+15551234567"},
		{"placeholder sid", SMSConfig{AccountSID: placeholderAccountSID, AuthToken: "t", FromNumber: "+1"}, "+15551234567"},
		{"empty recipient", SMSConfig{AccountSID: "AC123", AuthToken: "t", FromNumber: "+1"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewSMSNotifier(tt.cfg).Notify(context.Background(), tt.recipient, "hello")
			assert.Equal(t, StatusNotConfigured, result.Status)
		})
	}
}

func TestSMSNotifierSent(t *testing.T) {
	var gotPath, gotTo, gotBody, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotTo = r.PostForm.Get("To")
		gotBody = r.PostForm.Get("Body")
		gotUser, _, _ = r.BasicAuth()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	n := NewSMSNotifier(SMSConfig{AccountSID: "AC123", AuthToken: "secret", FromNumber: "+15017122661", BaseURL: srv.URL})
	result := n.Notify(context.Background(), "+919597032013", "CRITICAL ALERT")

	assert.Equal(t, StatusSent, result.Status)
	assert.Equal(t, "/Accounts/AC123/Messages.json", gotPath)
	assert.Equal(t, "+919597032013", gotTo)
	assert.Equal(t, "CRITICAL ALERT", gotBody)
	assert.Equal(t, "AC123", gotUser)
}

func TestSMSNotifierFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := NewSMSNotifier(SMSConfig{AccountSID: "AC123", AuthToken: "bad", FromNumber: "+1", BaseURL: srv.URL})
	result := n.Notify(context.Background(), "+15551234567", "msg")

	assert.Equal(t, StatusFailed, result.Status)
	assert.Contains(t, result.Detail, "401")
}

func TestNewPicksVariant(t *testing.T) {
	assert.IsType(t, Disabled{}, New(SMSConfig{}))
	assert.IsType(t, &SMSNotifier{}, New(SMSConfig{AccountSID: "AC1", AuthToken: "t", FromNumber: "+1"}))

	result := Disabled{}.Notify(context.Background(), "+1", "msg")
	assert.Equal(t, StatusNotConfigured, result.Status)
}
