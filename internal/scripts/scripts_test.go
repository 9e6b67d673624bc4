package scripts

import (
	"context"
	"strings"
	"testing"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/enduser"
	"ev-tracker/internal/migration"
	"ev-tracker/internal/phonenumber"
)

type fakeMigrations map[string]migration.Migration

func (f fakeMigrations) Get(ctx context.Context, id string) (migration.Migration, error) {
	m, ok := f[id]
	if !ok {
		return migration.Migration{}, apperr.NotFound("migration not found")
	}
	return m, nil
}

type fakeUsers []enduser.EndUser

func (f fakeUsers) List(ctx context.Context, migrationID string) ([]enduser.EndUser, error) {
	return f, nil
}

type fakeNumbers []phonenumber.Number

func (f fakeNumbers) List(ctx context.Context, migrationID string, filter phonenumber.Filter) ([]phonenumber.Number, error) {
	out := []phonenumber.Number{}
	for _, n := range f {
		if filter.Type == "" || n.Type == filter.Type {
			out = append(out, n)
		}
	}
	return out, nil
}

func TestTeamsScript_DirectRouting(t *testing.T) {
	migs := fakeMigrations{"m1": {
		ID:                 "m1",
		SiteName:           "HQ\nRemove-Item C:\\",
		CustomerName:       "O'Brien Ltd",
		RoutingType:        migration.RoutingDirect,
		VoiceRoutingPolicy: "US-Unrestricted",
		DialPlan:           "US-DP",
	}}
	users := fakeUsers{
		{DisplayName: "Ada", UPN: "ada@example.com", PhoneNumber: "+15550100"},
		{DisplayName: "Bob", UPN: "bob@example.com"},
	}
	numbers := fakeNumbers{
		{Number: "+15550199", Type: phonenumber.TypeResourceAccount, ResourceAccount: "ra-main@example.com"},
		{Number: "+15550101", Type: phonenumber.TypeUser},
	}

	out, err := NewService(migs, users, numbers).Teams(context.Background(), "m1")
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := []string{
		"Set-CsPhoneNumberAssignment -Identity 'ada@example.com' -PhoneNumber '+15550100' -PhoneNumberType DirectRouting",
		"Grant-CsOnlineVoiceRoutingPolicy -Identity 'ada@example.com' -PolicyName 'US-Unrestricted'",
		"Grant-CsTenantDialPlan -Identity 'ada@example.com' -PolicyName 'US-DP'",
		"# skipped 'bob@example.com': no phone number",
		"Set-CsPhoneNumberAssignment -Identity 'ra-main@example.com' -PhoneNumber '+15550199' -PhoneNumberType DirectRouting",
		"# Site:     HQ Remove-Item C:\\",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Fatalf("script missing %q:\n%s", w, out)
		}
	}
	if strings.Contains(out, "+15550101") {
		t.Fatalf("user-type numbers must not be assigned as resource accounts:\n%s", out)
	}
}

func TestTeamsScript_CallingPlanSkipsRoutingPolicy(t *testing.T) {
	migs := fakeMigrations{"m1": {ID: "m1", RoutingType: migration.RoutingCallingPlan, VoiceRoutingPolicy: "ignored"}}
	users := fakeUsers{{DisplayName: "Ada", UPN: "ada@example.com", PhoneNumber: "+15550100"}}

	out, err := NewService(migs, users, fakeNumbers{}).Teams(context.Background(), "m1")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "-PhoneNumberType CallingPlan") {
		t.Fatalf("expected CallingPlan:\n%s", out)
	}
	if strings.Contains(out, "Grant-CsOnlineVoiceRoutingPolicy") {
		t.Fatalf("calling plan script must not grant routing policy:\n%s", out)
	}
}

func TestPSQEscapesQuotes(t *testing.T) {
	if got := psq("O'Brien"); got != "'O''Brien'" {
		t.Fatalf("unexpected quoting: %s", got)
	}
}
