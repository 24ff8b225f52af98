package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func newUserService(f *fixture) *UserService {
	return NewUserService(testConfig().Auth, f.store.Users(), f.dispatcher, zap.NewNop())
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	ctx := context.Background()
	it := f.user(t, "ivan", domain.RoleIT)
	emp := f.user(t, "emma", domain.RoleEmployee)

	created, err := svc.CreateUser(ctx, it, UserCreateInput{Name: "Nina", Email: " Nina@Corp.local", Role: domain.RoleEmployee, Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "nina@corp.local", created.Email)
	assert.True(t, created.Active)

	_, err = svc.CreateUser(ctx, it, UserCreateInput{Name: "Dup", Email: "nina@corp.local", Role: domain.RoleIT, Password: "secret1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = svc.CreateUser(ctx, emp, UserCreateInput{Name: "X", Email: "x@corp.local", Role: domain.RoleIT, Password: "secret1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.CreateUser(ctx, it, UserCreateInput{Name: "X", Email: "x@corp.local", Role: "admin", Password: "secret1"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestEnsureUserIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	ctx := context.Background()
	input := UserCreateInput{Name: "IT Admin", Email: "Admin@Corp.local", Role: domain.RoleIT, Password: "bootstrap1"}

	created, err := svc.EnsureUser(ctx, input)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.EnsureUser(ctx, input)
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := f.store.Users().GetByEmail(ctx, "admin@corp.local")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleIT, admin.Role)
}

func TestImportUsers(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	ctx := context.Background()
	it := f.user(t, "ivan", domain.RoleIT)

	report, err := svc.ImportUsers(ctx, it, []UserImportRow{
		{Name: "Ana", Email: "ana@corp.local", Role: domain.RoleEmployee},
		{Name: "Ivan Again", Email: "ivan@corp.local", Role: domain.RoleIT},
		{Name: "Bad", Email: "not-an-email", Role: domain.RoleEmployee},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 2, report.Errors)
	require.Len(t, report.Details, 3)
	assert.Equal(t, ImportStatusCreated, report.Details[0].Status)
	assert.True(t, report.Details[0].EmailQueued)
	assert.Equal(t, ImportStatusError, report.Details[1].Status)
	assert.Equal(t, "email already registered", report.Details[1].Message)

	welcome := f.dispatcher.ofType(events.EventUserWelcome)
	require.Len(t, welcome, 1)
	assert.Equal(t, "Welcome@123", welcome[0].Payload.(events.UserWelcomePayload).Password)

	ana, err := f.store.Users().GetByEmail(ctx, "ana@corp.local")
	require.NoError(t, err)
	assert.True(t, auth.VerifyPassword(ana.PasswordHash, "Welcome@123"))
}

func TestListAndUpdateUsers(t *testing.T) {
	f := newFixture(t)
	svc := newUserService(f)
	ctx := context.Background()
	it := f.user(t, "ivan", domain.RoleIT)
	emp := f.user(t, "emma", domain.RoleEmployee)
	f.user(t, "alex", domain.RoleIT)

	all, err := svc.ListUsers(ctx, it)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	_, err = svc.ListUsers(ctx, emp)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	inactive := false
	role := domain.RoleIT
	updated, err := svc.UpdateUser(ctx, it, emp.ID, UserPatch{Active: &inactive, Role: &role})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, domain.RoleIT, updated.Role)

	staff, err := svc.ListITUsers(ctx)
	require.NoError(t, err)
	require.Len(t, staff, 2)
	assert.Equal(t, "alex", staff[0].Name)

	taken := "alex@corp.local"
	_, err = svc.UpdateUser(ctx, it, emp.ID, UserPatch{Email: &taken})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = svc.UpdateUser(ctx, it, "missing", UserPatch{})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestStatistics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	it := f.user(t, "ivan", domain.RoleIT)
	emp := f.user(t, "emma", domain.RoleEmployee)
	a := f.ticket(t, emp)
	f.ticket(t, emp)
	_, err := f.tickets.UpdateTicket(ctx, it, a.ID, domain.TicketPatch{
		Status:   domain.Some(domain.TicketStatusResolved),
		Priority: domain.Some(domain.TicketPriorityUrgent),
	})
	require.NoError(t, err)

	svc := NewStatisticsService(f.store.Tickets())
	stats, err := svc.GetStatistics(ctx, it)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[domain.TicketStatusOpen])
	assert.Equal(t, 1, stats.ByStatus[domain.TicketStatusResolved])
	assert.Len(t, stats.ByStatus, 6)
	assert.Equal(t, map[domain.TicketCategory]int{domain.TicketCategoryHardware: 2}, stats.ByCategory)
	assert.Equal(t, map[domain.TicketPriority]int{domain.TicketPriorityMedium: 1, domain.TicketPriorityUrgent: 1}, stats.ByPriority)

	_, err = svc.GetStatistics(ctx, emp)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}
