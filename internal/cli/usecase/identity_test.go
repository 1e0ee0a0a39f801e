package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfoliocontrol/pcsrel/internal/cli/entity"
)

func TestIdentityUsecase_EmptyInputWritesNothing(t *testing.T) {
	tests := []struct {
		name   string
		input  entity.GitIdentity
		fields []string
	}{
		{name: "empty name", input: entity.GitIdentity{Email: "jane@example.com"}, fields: []string{"name"}},
		{name: "empty email", input: entity.GitIdentity{Name: "Jane Doe"}, fields: []string{"email"}},
		{name: "both empty", input: entity.GitIdentity{}, fields: []string{"name", "email"}},
		{name: "whitespace only", input: entity.GitIdentity{Name: "  ", Email: "\t"}, fields: []string{"name", "email"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeIdentityStore{}
			uc := NewIdentityUsecase(store, nil)

			changed, err := uc.Configure(context.Background(), tt.input)
			require.Error(t, err)
			assert.False(t, changed)
			assert.True(t, errors.Is(err, ErrValidation))

			var validation *ValidationError
			require.True(t, errors.As(err, &validation))
			assert.Equal(t, tt.fields, validation.Fields)

			assert.Zero(t, store.loads)
			assert.Empty(t, store.writes)
		})
	}
}

func TestIdentityUsecase_Configure(t *testing.T) {
	ctx := context.Background()
	store := &fakeIdentityStore{}
	runs := newTestRunStore(t)
	uc := NewIdentityUsecase(store, NewRunTracker(runs, ""))

	changed, err := uc.Configure(ctx, entity.GitIdentity{Name: " Jane Doe ", Email: "jane@example.com"})
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"name=Jane Doe", "email=jane@example.com"}, store.writes)

	current, err := uc.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.GitIdentity{Name: "Jane Doe", Email: "jane@example.com"}, current)

	run, err := runs.GetLatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.StepIdentity, run.Step)
	assert.Equal(t, entity.RunSuccess, run.State)
}

func TestIdentityUsecase_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := &fakeIdentityStore{}
	uc := NewIdentityUsecase(store, nil)
	input := entity.GitIdentity{Name: "Jane Doe", Email: "jane@example.com"}

	_, err := uc.Configure(ctx, input)
	require.NoError(t, err)
	once := *store

	changed, err := uc.Configure(ctx, input)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, once.name, store.name)
	assert.Equal(t, once.email, store.email)
	assert.Len(t, store.writes, 2)
}

func TestIdentityUsecase_RestoresNameWhenEmailFails(t *testing.T) {
	store := &fakeIdentityStore{
		name:      "Old Name",
		email:     "old@example.com",
		failEmail: errors.New("could not lock config file"),
	}
	uc := NewIdentityUsecase(store, nil)

	_, err := uc.Configure(context.Background(), entity.GitIdentity{Name: "Jane Doe", Email: "jane@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user.email")
	assert.Equal(t, "Old Name", store.name)
	assert.Equal(t, "old@example.com", store.email)
	assert.Equal(t, []string{"name=Jane Doe", "email=jane@example.com", "name=Old Name"}, store.writes)
}
