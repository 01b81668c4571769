package service

import (
	"errors"
	"testing"

	"github.com/salonbook/salonbook/internal/errs"
)

func TestRetry(t *testing.T) {
	t.Run("success passes through", func(t *testing.T) {
		calls := 0
		if err := Retry(func() error { calls++; return nil }); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
	})

	t.Run("retries once on unavailable", func(t *testing.T) {
		calls := 0
		err := Retry(func() error {
			calls++
			if calls == 1 {
				return errs.ErrUnavailable
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected recovery, got %v", err)
		}
		if calls != 2 {
			t.Fatalf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("gives up after one retry", func(t *testing.T) {
		calls := 0
		err := Retry(func() error { calls++; return errs.ErrUnavailable })
		if !errors.Is(err, errs.ErrUnavailable) {
			t.Fatalf("expected ErrUnavailable, got %v", err)
		}
		if calls != 2 {
			t.Fatalf("expected 2 calls, got %d", calls)
		}
	})

	t.Run("domain errors surface immediately", func(t *testing.T) {
		calls := 0
		err := Retry(func() error { calls++; return errs.ErrInvalid })
		if !errors.Is(err, errs.ErrInvalid) {
			t.Fatalf("expected ErrInvalid, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected 1 call, got %d", calls)
		}
	})
}
