package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestStructuredErrorMessage(t *testing.T) {
	refused := errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

	tests := []struct {
		name string
		err  *StructuredError
		want string
	}{
		{"bare", New(ErrCodeNotFound, "no backup found in backups"), "[NOT_FOUND] no backup found in backups"},
		{"with cause", Wrap(ErrCodeUnavailable, "redis ping failed", refused),
			"[SERVICE_UNAVAILABLE] redis ping failed: " + refused.Error()},
		{"context is not printed", NewWithContext(ErrCodeConflict, "port in use", map[string]any{"port": 5000}),
			"[CONFLICT] port in use"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("checksum mismatch")
	err := WrapWithContext(ErrCodeIntegrity, "archive corrupted", cause,
		map[string]any{"archive": "backup_20250102_030405.tar.gz"})

	if err.Code != ErrCodeIntegrity {
		t.Errorf("Code = %s, want %s", err.Code, ErrCodeIntegrity)
	}
	if err.Unwrap() != cause || !errors.Is(err, cause) {
		t.Error("cause is not reachable through Unwrap")
	}
	if err.Context["archive"] != "backup_20250102_030405.tar.gz" {
		t.Errorf("Context = %v", err.Context)
	}
	if New(ErrCodeTimeout, "slow").Cause != nil {
		t.Error("New should not set a cause")
	}
}

func TestIs(t *testing.T) {
	missing := New(ErrCodeNotFound, "no backup archive found")
	restore := Wrap(ErrCodeInternal, "restore failed", missing)
	viaFmt := fmt.Errorf("restore: %w", restore)

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"outer code", restore, ErrCodeInternal, true},
		{"inner code", restore, ErrCodeNotFound, true},
		{"through fmt wrap", viaFmt, ErrCodeNotFound, true},
		{"absent code", restore, ErrCodeTimeout, false},
		{"plain error", errors.New("boom"), ErrCodeInternal, false},
		{"nil error", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is(%v, %s) = %v, want %v", tt.err, tt.code, got, tt.want)
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	tests := map[string]struct {
		err  error
		want ErrorCode
	}{
		"structured": {New(ErrCodeUnauthorized, "claude rejected key"), ErrCodeUnauthorized},
		"outermost":  {Wrap(ErrCodeTimeout, "health wait", New(ErrCodeUnavailable, "down")), ErrCodeTimeout},
		"wrapped":    {fmt.Errorf("up: %w", New(ErrCodeInvalidRequest, "bad port")), ErrCodeInvalidRequest},
		"plain":      {errors.New("plain"), ErrCodeInternal},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := CodeOf(tt.err); got != tt.want {
				t.Errorf("CodeOf() = %s, want %s", got, tt.want)
			}
		})
	}
}
