package notification

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"order-workflow-service/internal/model"
	"order-workflow-service/internal/repository"
)

type fakeTransport struct {
	mu        sync.Mutex
	delivered []*model.Notification
	fail      bool
}

func (f *fakeTransport) Deliver(n *model.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("transporte caído")
	}
	f.delivered = append(f.delivered, n)
	return nil
}

func event(to model.OrderStatus, comment string) model.TransitionEvent {
	return model.TransitionEvent{
		OrderID:      "ord-1",
		DepartmentID: "dep-7",
		From:         model.StatusSubmitted,
		To:           to,
		Actor:        "admin-1",
		Comment:      comment,
	}
}

func TestTransitionMapping(t *testing.T) {
	tests := []struct {
		name     string
		to       model.OrderStatus
		comment  string
		scope    string
		priority model.NotificationPriority
	}{
		{"aprobado avisa al departamento", model.StatusApproved, "", "dep-7", model.PriorityHigh},
		{"rechazado avisa al departamento", model.StatusRejected, "faltan firmas", "dep-7", model.PriorityHigh},
		{"enviado avisa a los admins", model.StatusSubmitted, "", model.RecipientAdmins, model.PriorityMedium},
		{"el resto avisa al departamento", model.StatusExported, "", "dep-7", model.PriorityNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repository.NewMemoryNotificationRepository()
			transport := &fakeTransport{}
			d := NewDispatcher(repo, transport)

			d.HandleTransition(event(tt.to, tt.comment))

			notes, err := repo.FindByScopes(context.Background(), []string{tt.scope})
			require.NoError(t, err)
			require.Len(t, notes, 1)

			n := notes[0]
			assert.Equal(t, model.NotificationTypeOrder, n.Type)
			assert.Equal(t, tt.priority, n.Priority)
			assert.Equal(t, tt.scope, n.RecipientScope)
			assert.False(t, n.Read)
			assert.Equal(t, "ord-1", n.Metadata["order_id"])
			assert.Equal(t, string(tt.to), n.Metadata["to"])

			require.Len(t, transport.delivered, 1)
			assert.Equal(t, n.ID, transport.delivered[0].ID)
		})
	}
}

func TestCreationNotification(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	d := NewDispatcher(repo, &fakeTransport{})

	// la creación llega con origen vacío
	d.HandleTransition(model.TransitionEvent{
		OrderID:      "ord-1",
		DepartmentID: "dep-7",
		To:           model.StatusPending,
		Actor:        "user-1",
	})

	notes, err := repo.FindByScopes(context.Background(), []string{"dep-7"})
	require.NoError(t, err)
	require.Len(t, notes, 1)

	n := notes[0]
	assert.Equal(t, "Pedido creado", n.Title)
	assert.Equal(t, "El pedido ord-1 fue creado.", n.Message)
	assert.Equal(t, model.PriorityNormal, n.Priority)
	assert.NotContains(t, n.Message, "pasó a")
}

func TestRejectedMessageCarriesComment(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	d := NewDispatcher(repo, &fakeTransport{})

	d.HandleTransition(event(model.StatusRejected, "falta la hoja de firmas"))

	notes, err := repo.FindByScopes(context.Background(), []string{"dep-7"})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "falta la hoja de firmas")
}

func TestDeliveryFailureDoesNotPropagate(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	d := NewDispatcher(repo, &fakeTransport{fail: true})

	// HandleTransition no devuelve error: solo loguea
	d.HandleTransition(event(model.StatusApproved, ""))

	notes, err := repo.FindByScopes(context.Background(), []string{"dep-7"})
	require.NoError(t, err)
	assert.Len(t, notes, 1, "el registro queda aunque la entrega falle")
}

func TestNilTransport(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	d := NewDispatcher(repo, nil)

	d.HandleTransition(event(model.StatusApproved, ""))

	notes, _ := repo.FindByScopes(context.Background(), []string{"dep-7"})
	assert.Len(t, notes, 1)
}

func TestMarkReadScoped(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	d := NewDispatcher(repo, &fakeTransport{})
	ctx := context.Background()

	d.HandleTransition(event(model.StatusApproved, ""))
	notes, err := d.List(ctx, []string{"dep-7"})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	id := notes[0].ID

	// otro scope no puede marcarla
	err = d.MarkRead(ctx, id, []string{"dep-9"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, d.MarkRead(ctx, id, []string{"dep-7"}))
	notes, _ = d.List(ctx, []string{"dep-7"})
	assert.True(t, notes[0].Read)
	assert.NotNil(t, notes[0].ReadAt)
}

func TestMarkAllRead(t *testing.T) {
	repo := repository.NewMemoryNotificationRepository()
	d := NewDispatcher(repo, &fakeTransport{})
	ctx := context.Background()

	d.HandleTransition(event(model.StatusApproved, ""))
	d.HandleTransition(event(model.StatusRejected, "no"))
	d.HandleTransition(event(model.StatusSubmitted, "")) // scope admins

	require.NoError(t, d.MarkAllRead(ctx, []string{"dep-7"}))

	deptNotes, _ := d.List(ctx, []string{"dep-7"})
	for _, n := range deptNotes {
		assert.True(t, n.Read)
	}
	adminNotes, _ := d.List(ctx, []string{model.RecipientAdmins})
	require.Len(t, adminNotes, 1)
	assert.False(t, adminNotes[0].Read, "los scopes ajenos no se tocan")
}

func TestScopesFor(t *testing.T) {
	assert.Equal(t, []string{"u-1", "dep-7"}, ScopesFor("u-1", "dep-7", false))
	assert.Equal(t, []string{"u-1", "dep-7", model.RecipientAdmins}, ScopesFor("u-1", "dep-7", true))
}
