package shared

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestSetLogLevel(t *testing.T) {
	tc := []struct {
		name    string
		level   string
		want    log.Level
		wantErr bool
	}{
		{name: "debug", level: "debug", want: log.DebugLevel},
		{name: "upper case", level: "WARN", want: log.WarnLevel},
		{name: "empty keeps default", level: "", want: log.InfoLevel},
		{name: "unknown", level: "chatty", want: log.InfoLevel, wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(&bytes.Buffer{})
			err := SetLogLevel(logger, tt.level)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if logger.GetLevel() != tt.want {
				t.Errorf("expected level %v, got %v", tt.want, logger.GetLevel())
			}
		})
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := GenerateState()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a == "" || a == b {
		t.Errorf("expected distinct non-empty states, got %q and %q", a, b)
	}
	if strings.ContainsAny(a, "+/=") {
		t.Errorf("state should be URL safe, got %q", a)
	}
}

func TestErrMalformedData(t *testing.T) {
	if !errors.Is(ErrMalformedData, ErrInvalidInput) {
		t.Error("malformed data should classify as invalid input")
	}
}
