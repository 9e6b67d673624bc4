// Package scripts renders PowerShell for the Teams configuration phase.
package scripts

import (
	"bytes"
	"context"
	_ "embed"
	"strings"
	"text/template"
	"time"

	"ev-tracker/internal/enduser"
	"ev-tracker/internal/migration"
	"ev-tracker/internal/phonenumber"
)

//go:embed teams.ps1.tmpl
var teamsSource string

var teamsTemplate = template.Must(template.New("teams").Funcs(template.FuncMap{"psq": psq, "comment": comment}).Parse(teamsSource))

// comment flattens s onto a single comment line.
func comment(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// psq quotes s as a PowerShell single-quoted literal.
func psq(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

type Migrations interface {
	Get(ctx context.Context, id string) (migration.Migration, error)
}

type Users interface {
	List(ctx context.Context, migrationID string) ([]enduser.EndUser, error)
}

type Numbers interface {
	List(ctx context.Context, migrationID string, f phonenumber.Filter) ([]phonenumber.Number, error)
}

type Service struct {
	migrations Migrations
	users      Users
	numbers    Numbers
	clock      func() time.Time
}

func NewService(migrations Migrations, users Users, numbers Numbers) *Service {
	return &Service{migrations: migrations, users: users, numbers: numbers, clock: time.Now}
}

type resourceAccount struct {
	Account string
	Number  string
}

type teamsData struct {
	SiteName           string
	CustomerName       string
	NumberType         string
	VoiceRoutingPolicy string
	DialPlan           string
	GeneratedAt        string
	Users              []enduser.EndUser
	ResourceAccounts   []resourceAccount
}

// numberType maps a routing type to the -PhoneNumberType argument.
func numberType(r migration.RoutingType) string {
	switch r {
	case migration.RoutingOperatorConnect:
		return "OperatorConnect"
	case migration.RoutingCallingPlan:
		return "CallingPlan"
	default:
		return "DirectRouting"
	}
}

// Teams renders the phone assignment script for every end user and resource account of a migration.
// Voice routing policies apply to Direct Routing only.
func (s *Service) Teams(ctx context.Context, migrationID string) (string, error) {
	m, err := s.migrations.Get(ctx, migrationID)
	if err != nil {
		return "", err
	}
	users, err := s.users.List(ctx, migrationID)
	if err != nil {
		return "", err
	}
	numbers, err := s.numbers.List(ctx, migrationID, phonenumber.Filter{Type: phonenumber.TypeResourceAccount})
	if err != nil {
		return "", err
	}

	data := teamsData{
		SiteName:     m.SiteName,
		CustomerName: m.CustomerName,
		NumberType:   numberType(m.RoutingType),
		DialPlan:     m.DialPlan,
		GeneratedAt:  s.clock().UTC().Format(time.RFC3339),
		Users:        users,
	}
	if m.RoutingType == migration.RoutingDirect || m.RoutingType == "" {
		data.VoiceRoutingPolicy = m.VoiceRoutingPolicy
	}
	for _, n := range numbers {
		if n.ResourceAccount == "" {
			continue
		}
		data.ResourceAccounts = append(data.ResourceAccounts, resourceAccount{Account: n.ResourceAccount, Number: n.Number})
	}

	var buf bytes.Buffer
	if err := teamsTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
