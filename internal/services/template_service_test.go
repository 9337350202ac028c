package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/opsdesk-api/internal/models"
	"github.com/yukikurage/opsdesk-api/internal/recurrence"
	"github.com/yukikurage/opsdesk-api/internal/template"
)

func rawLevels(t *testing.T, doc string) []template.RawLevel {
	t.Helper()
	var levels []template.RawLevel
	require.NoError(t, json.Unmarshal([]byte(doc), &levels))
	return levels
}

func TestDefineTemplate_NormalizesLevels(t *testing.T) {
	env := newTestEnv(t)

	preset, err := env.templates.DefineTemplate(context.Background(), DefineTemplateInput{
		Name:   " Monthly close ",
		Levels: rawLevels(t, `["Sales", {"department": {"name": "Accounting"}}, {"name": "Legal"}]`),
		Tasks: []template.TaskBlueprint{
			{Title: "Reconcile", LevelIndex: 1, Order: 0},
			{Title: "Sign off", LevelIndex: 2, Order: 1, Priority: template.PriorityHigh},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Monthly close", preset.Name)
	assert.True(t, preset.IsActive)
	assert.Equal(t, []template.Level{
		{LevelIndex: 0, Department: "Sales"},
		{LevelIndex: 1, Department: "Accounting"},
		{LevelIndex: 2, Department: "Legal"},
	}, preset.Levels)

	stored, err := env.templates.GetTemplate(context.Background(), preset.ID)
	require.NoError(t, err)
	require.Len(t, stored.Tasks, 2)
	assert.Equal(t, template.PriorityMedium, stored.Tasks[0].Priority)
	assert.Equal(t, "Sign off", stored.Tasks[1].Title)

	assert.Equal(t, []string{ActionPresetDefined}, env.recorder.actions())
}

func TestDefineTemplate_Rejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.templates.DefineTemplate(ctx, DefineTemplateInput{Levels: template.LevelsFromNames("Sales")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.templates.DefineTemplate(ctx, DefineTemplateInput{Name: "No levels"})
	assert.ErrorIs(t, err, template.ErrInvalidTemplate)

	_, err = env.templates.DefineTemplate(ctx, DefineTemplateInput{
		Name:   "Bad task",
		Levels: template.LevelsFromNames("Sales"),
		Tasks:  []template.TaskBlueprint{{Title: "Orphan", LevelIndex: 1}},
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, template.ErrInvalidTemplate)

	assert.Equal(t, int64(0), env.count(t, &models.PresetProject{}))
	assert.Equal(t, int64(0), env.count(t, &models.PresetTask{}))
}

func TestDefineTemplate_NameMustBeUnique(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	input := DefineTemplateInput{Name: "Audit", Levels: template.LevelsFromNames("Accounting")}

	_, err := env.templates.DefineTemplate(ctx, input)
	require.NoError(t, err)

	_, err = env.templates.DefineTemplate(ctx, input)
	assert.ErrorIs(t, err, ErrTemplateNameTaken)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, int64(1), env.count(t, &models.PresetProject{}))
}

func TestApplyTemplate_UsesStoredTasksByDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	preset, err := env.templates.DefineTemplate(ctx, DefineTemplateInput{
		Name:   "Onboarding",
		Levels: template.LevelsFromNames("Sales", "Accounting"),
		Tasks: []template.TaskBlueprint{
			{Title: "Kickoff", LevelIndex: 0, Order: 0},
			{Title: "Billing profile", LevelIndex: 1, Order: 1},
		},
	})
	require.NoError(t, err)

	projectID, err := env.templates.ApplyTemplate(ctx, preset.ID, ProjectOverrides{Name: "Acme onboarding"}, nil)
	require.NoError(t, err)

	got, err := env.templates.GetProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, "Acme onboarding", got.Project.Name)
	require.Len(t, got.Tasks, 2)
	assert.Equal(t, "Kickoff", got.Tasks[0].Title)
	assert.Equal(t, "Sales", got.Tasks[0].Department)
	assert.Equal(t, "Accounting", got.Tasks[1].Department)
	for _, task := range got.Tasks {
		assert.True(t, task.IsPresetPending)
	}
}

func TestApplyTemplate_ExplicitBlueprintsReplaceStoredTasks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	preset, err := env.templates.DefineTemplate(ctx, DefineTemplateInput{
		Name:   "Onboarding",
		Levels: template.LevelsFromNames("Sales"),
		Tasks:  []template.TaskBlueprint{{Title: "Kickoff", LevelIndex: 0}},
	})
	require.NoError(t, err)

	projectID, err := env.templates.ApplyTemplate(ctx, preset.ID, ProjectOverrides{}, []template.TaskBlueprint{})
	require.NoError(t, err)

	got, err := env.templates.GetProject(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, got.Tasks)
}

func TestApplyTemplate_InactiveAndMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	inactive := false

	preset, err := env.templates.DefineTemplate(ctx, DefineTemplateInput{
		Name:     "Retired",
		Levels:   template.LevelsFromNames("Sales"),
		IsActive: &inactive,
	})
	require.NoError(t, err)

	_, err = env.templates.ApplyTemplate(ctx, preset.ID, ProjectOverrides{}, nil)
	assert.ErrorIs(t, err, recurrence.ErrInactiveTemplate)

	_, err = env.templates.ApplyTemplate(ctx, 999, ProjectOverrides{}, nil)
	assert.ErrorIs(t, err, ErrPresetProjectNotFound)

	assert.Equal(t, int64(0), env.count(t, &models.Project{}))
}

func TestGetProject_NotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.templates.GetProject(context.Background(), 1)
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestDraftBlueprints_WithoutAI(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.templates.DraftBlueprints(context.Background(), "plan the audit", template.LevelsFromNames("Accounting"))
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestApplyTemplate_DefaultStatusFromSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	status := models.ProjectStatusInProgress
	_, err := env.settings.Update(ctx, UpdateSettingInput{DefaultProjectStatus: &status})
	require.NoError(t, err)

	preset, err := env.templates.DefineTemplate(ctx, DefineTemplateInput{Name: "Audit", Levels: template.LevelsFromNames("Accounting")})
	require.NoError(t, err)

	projectID, err := env.templates.ApplyTemplate(ctx, preset.ID, ProjectOverrides{}, nil)
	require.NoError(t, err)

	got, err := env.templates.GetProject(ctx, projectID)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusInProgress, got.Project.Status)
}
