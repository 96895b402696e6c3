package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialsApply(t *testing.T) {
	tests := []struct {
		name     string
		creds    *Credentials
		wantAuth string
		wantCook string
	}{
		{
			name:  "nil credentials set nothing",
			creds: nil,
		},
		{
			name:  "empty credentials set nothing",
			creds: &Credentials{UserID: "tester@example.com"},
		},
		{
			name:     "password produces basic auth",
			creds:    &Credentials{UserID: "tester@example.com", Password: "sekrit"},
			wantAuth: "Basic dGVzdGVyQGV4YW1wbGUuY29tOnNla3JpdA==",
		},
		{
			name:     "cookie wins over password",
			creds:    &Credentials{UserID: "tester@example.com", Password: "sekrit", Cookie: "USERTOKEN=abc"},
			wantCook: "USERTOKEN=abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			tt.creds.apply(h)
			assert.Equal(t, tt.wantAuth, h.Get("Authorization"))
			assert.Equal(t, tt.wantCook, h.Get("Cookie"))
			if tt.wantCook != "" {
				assert.Empty(t, h.Get("Authorization"))
			}
		})
	}
}
