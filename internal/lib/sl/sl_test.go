package sl_test

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/eltawla-payments/internal/lib/sl"
)

func TestErr(t *testing.T) {
	attr := sl.Err(errors.New("card declined"))

	assert.Equal(t, "error", attr.Key)
	assert.Equal(t, slog.StringValue("card declined"), attr.Value)
}

func TestErr_Nil(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Equal(t, "", sl.Err(nil).Value.String())
	})
}

func TestUserID(t *testing.T) {
	attr := sl.UserID("u1")
	assert.Equal(t, "user_id", attr.Key)
	assert.Equal(t, "u1", attr.Value.String())
}

func TestSetupLogger(t *testing.T) {
	tests := []struct {
		env       string
		wantJSON  bool
		wantDebug bool
	}{
		{env: sl.EnvLocal, wantDebug: true},
		{env: sl.EnvDev, wantJSON: true, wantDebug: true},
		{env: sl.EnvProd, wantJSON: true},
		{env: "unknown", wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			var buf bytes.Buffer
			log := sl.SetupLogger(tt.env, &buf)

			log.Debug("debug line")
			log.Info("payment succeeded", sl.UserID("u1"))

			out := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "debug line"))
			assert.Equal(t, tt.wantJSON, strings.HasPrefix(out, "{"))
			assert.Contains(t, out, "u1")
		})
	}
}
