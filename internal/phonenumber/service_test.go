package phonenumber

import (
	"context"
	"errors"
	"testing"
	"time"

	"ev-tracker/internal/apperr"
)

type fixedCountry string

func (f fixedCountry) CountryCode(ctx context.Context, migrationID string) (string, error) {
	return string(f), nil
}

type knownUsers map[string]bool

func (k knownUsers) Exists(ctx context.Context, migrationID, userID string) (bool, error) {
	return k[userID], nil
}

func newTestService(repo *MemoryRepo) *Service {
	svc := NewService(repo, fixedCountry("1"), knownUsers{"u1": true}, nil)
	svc.clock = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestValidate(t *testing.T) {
	cases := []struct {
		in      string
		cc      string
		want    string
		wantErr bool
	}{
		{in: "+1 (555) 123-4567", cc: "1", want: "+15551234567"},
		{in: "+442071838750", cc: "44", want: "+442071838750"},
		{in: "+442071838750", cc: "1", wantErr: true},
		{in: "5551234567", cc: "1", wantErr: true},
		{in: "+0123456789", cc: "", wantErr: true},
		{in: "+1555", cc: "1", wantErr: true},
	}
	for _, tc := range cases {
		got, err := Validate(tc.in, tc.cc)
		if tc.wantErr {
			if !errors.Is(err, apperr.ErrBadRequest) {
				t.Fatalf("%q: expected bad request, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]PortingStatus{
		{StatusNotStarted, StatusLOASubmitted},
		{StatusLOASubmitted, StatusFOCReceived},
		{StatusLOASubmitted, StatusLOARejected},
		{StatusLOARejected, StatusNotStarted},
		{StatusLOARejected, StatusLOASubmitted},
		{StatusFOCReceived, StatusPortScheduled},
		{StatusFOCReceived, StatusPortFailed},
		{StatusPortScheduled, StatusPorted},
		{StatusPortScheduled, StatusPortFailed},
		{StatusPortFailed, StatusPortScheduled},
		{StatusPortFailed, StatusNotStarted},
		{StatusPorted, StatusVerified},
	}
	for _, p := range allowed {
		if !CanTransition(p[0], p[1]) {
			t.Fatalf("expected %s -> %s to be allowed", p[0], p[1])
		}
	}

	denied := [][2]PortingStatus{
		{StatusNotStarted, StatusPorted},
		{StatusVerified, StatusNotStarted},
		{StatusLOARejected, StatusFOCReceived},
		{StatusPorted, StatusPorted},
	}
	for _, p := range denied {
		if CanTransition(p[0], p[1]) {
			t.Fatalf("expected %s -> %s to be denied", p[0], p[1])
		}
	}
}

func TestService_CreateNormalizesAndDefaults(t *testing.T) {
	svc := newTestService(NewMemoryRepo())

	n, err := svc.Create(context.Background(), "m1", CreateInput{Number: "+1 555 123 4567"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.Number != "+15551234567" || n.Type != TypeUser || n.PortingStatus != StatusNotStarted {
		t.Fatalf("unexpected number: %+v", n)
	}

	_, err = svc.Create(context.Background(), "m1", CreateInput{Number: "+15551234567"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict on duplicate, got %v", err)
	}
}

func TestService_CreateRejectsForeignUser(t *testing.T) {
	svc := newTestService(NewMemoryRepo())
	other := "u2"
	_, err := svc.Create(context.Background(), "m1", CreateInput{Number: "+15551234567", AssignedUserID: &other})
	if !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestService_SetStatusFollowsMachine(t *testing.T) {
	svc := newTestService(NewMemoryRepo())
	ctx := context.Background()

	n, err := svc.Create(ctx, "m1", CreateInput{Number: "+15551234567"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.SetStatus(ctx, "m1", n.ID, StatusPorted); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict skipping ahead, got %v", err)
	}

	for _, st := range []PortingStatus{StatusLOASubmitted, StatusFOCReceived, StatusPortScheduled, StatusPorted} {
		if n, err = svc.SetStatus(ctx, "m1", n.ID, st); err != nil {
			t.Fatalf("set %s: %v", st, err)
		}
	}
	if n.PortedAt == nil {
		t.Fatalf("expected ported_at to be stamped")
	}

	if _, err := svc.SetStatus(ctx, "m1", n.ID, "bogus"); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected bad request for unknown status, got %v", err)
	}
}

func TestService_ScopedToMigration(t *testing.T) {
	svc := newTestService(NewMemoryRepo())
	ctx := context.Background()

	n, err := svc.Create(ctx, "m1", CreateInput{Number: "+15551234567"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Get(ctx, "m2", n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found from other migration, got %v", err)
	}
}

func TestMemoryRepo_MarkAllPorted(t *testing.T) {
	repo := NewMemoryRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for _, num := range []string{"+15550000001", "+15550000002", "+15550000003"} {
		if _, err := svc.Create(ctx, "m1", CreateInput{Number: num}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := svc.Create(ctx, "m2", CreateInput{Number: "+15550000004"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	at := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	if got := repo.MarkAllPorted("m1", at); got != 3 {
		t.Fatalf("expected 3 updated, got %d", got)
	}

	list, _ := svc.List(ctx, "m1", Filter{})
	for _, n := range list {
		if n.PortingStatus != StatusPorted || n.PortedAt == nil {
			t.Fatalf("expected ported with date: %+v", n)
		}
	}
	other, _ := svc.List(ctx, "m2", Filter{})
	if other[0].PortingStatus != StatusNotStarted {
		t.Fatalf("other migration must be untouched")
	}
}
