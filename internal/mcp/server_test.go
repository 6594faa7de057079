package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/storage/sqlite"
	"github.com/claude/setlog/internal/training"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC)

// TestUserIDFromContextDefault verifies there is no user without WithUserID.
func TestUserIDFromContextDefault(t *testing.T) {
	assert.Zero(t, UserIDFromContext(context.Background()))
}

// TestUserIDFromContextSet verifies the user ID is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), 42)
	assert.Equal(t, int64(42), UserIDFromContext(ctx))
}

type fixture struct {
	ctx   context.Context
	h     *handlers
	svc   *training.Service
	squat *models.Exercise
	tmpl  *models.Template
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "setlog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := training.NewService(store, log,
		training.WithClock(func() time.Time { return testNow }),
		training.WithLocation(time.UTC),
	)

	ctx := context.Background()
	user, err := store.GetOrCreateUser(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)

	squat, err := svc.CreateExercise(ctx, models.Exercise{Name: "squat", LoadUnit: models.LoadUnitKilograms})
	require.NoError(t, err)
	tmpl, err := svc.CreateTemplate(ctx, training.Actor{UserID: user}, "Legs", "", models.OwnedBy(user))
	require.NoError(t, err)
	_, err = svc.AddTemplateLine(ctx, training.Actor{UserID: user}, tmpl.ID, squat.ID, 2)
	require.NoError(t, err)

	return &fixture{
		ctx:   WithUserID(ctx, user),
		h:     &handlers{svc: svc, log: log},
		svc:   svc,
		squat: squat,
		tmpl:  tmpl,
	}
}

func call(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func decodeResult[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var v T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &v))
	return v
}

// TestMaterializeLogAndProgress covers the tool flow an assistant would use
// during a workout.
func TestMaterializeLogAndProgress(t *testing.T) {
	f := newFixture(t)

	res, err := f.h.materializeTemplate(f.ctx, call(map[string]any{"template_id": float64(f.tmpl.ID)}))
	require.NoError(t, err)
	session := decodeResult[models.Session](t, res)
	assert.Equal(t, models.DateOf(testNow), session.Date)

	res, err = f.h.getSessionProgress(f.ctx, call(map[string]any{"session_id": session.ID.String()}))
	require.NoError(t, err)
	progress := decodeResult[training.SessionProgress](t, res)
	assert.Equal(t, training.StatusPending, progress.Progress.Status)
	require.Len(t, progress.Progress.Exercises, 1)
	entries := progress.Progress.Exercises[0].Entries
	require.Len(t, entries, 2)

	res, err = f.h.updateRecord(f.ctx, call(map[string]any{
		"record_id":   float64(entries[0].ID),
		"repetitions": float64(5),
		"load":        100.0,
	}))
	require.NoError(t, err)
	updated := decodeResult[models.ExerciseRecord](t, res)
	assert.Equal(t, 5, updated.Repetitions)
	assert.Empty(t, updated.Notes)

	res, err = f.h.getSessionProgress(f.ctx, call(map[string]any{"session_id": session.ID.String()}))
	require.NoError(t, err)
	progress = decodeResult[training.SessionProgress](t, res)
	assert.Equal(t, training.StatusStarted, progress.Progress.Status)
	assert.Equal(t, []float64{500, 0}, progress.Progress.Exercises[0].Values)

	res, err = f.h.logSet(f.ctx, call(map[string]any{
		"session_id":  session.ID.String(),
		"exercise_id": float64(f.squat.ID),
		"repetitions": float64(3),
		"load":        110.0,
		"notes":       "grinder",
	}))
	require.NoError(t, err)
	logged := decodeResult[models.ExerciseRecord](t, res)
	assert.Equal(t, "grinder", logged.Notes)
	assert.Equal(t, session.ID, logged.SessionID)

	res, err = f.h.getExerciseHistory(f.ctx, call(map[string]any{"exercise_id": float64(f.squat.ID)}))
	require.NoError(t, err)
	history := decodeResult[training.ExerciseHistory](t, res)
	assert.Equal(t, 110.0, history.PersonalRecord)
	assert.Len(t, history.Entries, 3)
}

func TestResolveActiveSessionTool(t *testing.T) {
	f := newFixture(t)

	type resolved struct {
		Session models.Session `json:"session"`
		Created bool           `json:"created"`
	}

	res, err := f.h.resolveActiveSession(f.ctx, call(nil))
	require.NoError(t, err)
	first := decodeResult[resolved](t, res)
	assert.True(t, first.Created)

	res, err = f.h.resolveActiveSession(f.ctx, call(map[string]any{"date": "2024-05-11"}))
	require.NoError(t, err)
	second := decodeResult[resolved](t, res)
	assert.False(t, second.Created)
	assert.Equal(t, first.Session.ID, second.Session.ID)

	res, err = f.h.resolveActiveSession(f.ctx, call(map[string]any{"date": "tomorrow"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = f.h.listSessions(f.ctx, call(map[string]any{"limit": float64(5)}))
	require.NoError(t, err)
	assert.Len(t, decodeResult[[]models.Session](t, res), 1)
}

func TestToolErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]any
		want    string
	}{
		{"missing template id", f.h.materializeTemplate, nil, "template_id parameter is required"},
		{"unknown template", f.h.materializeTemplate, map[string]any{"template_id": float64(999)}, "not found"},
		{"malformed session id", f.h.getSessionProgress, map[string]any{"session_id": "abc"}, "session_id must be a UUID"},
		{"unknown session", f.h.getSessionProgress, map[string]any{"session_id": uuid.NewString()}, "not found"},
		{"negative load", f.h.logSet, map[string]any{
			"session_id": uuid.NewString(), "exercise_id": float64(f.squat.ID), "repetitions": float64(1), "load": -5.0,
		}, "invalid input"},
		{"missing load", f.h.logSet, map[string]any{
			"session_id": uuid.NewString(), "exercise_id": float64(f.squat.ID), "repetitions": float64(1),
		}, "load parameter is required"},
		{"bad limit", f.h.listSessions, map[string]any{"limit": float64(0)}, "limit must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := tt.handler(f.ctx, call(tt.args))
			require.NoError(t, err)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}

// TestTemplatesAreScopedToCaller hides other users' templates.
func TestTemplatesAreScopedToCaller(t *testing.T) {
	f := newFixture(t)

	res, err := f.h.listTemplates(f.ctx, call(nil))
	require.NoError(t, err)
	assert.Len(t, decodeResult[[]models.Template](t, res), 1)

	stranger := WithUserID(context.Background(), 9999)
	res, err = f.h.listTemplates(stranger, call(nil))
	require.NoError(t, err)
	assert.Empty(t, decodeResult[[]models.Template](t, res))

	res, err = f.h.getTemplate(stranger, call(map[string]any{"template_id": float64(f.tmpl.ID)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestResources(t *testing.T) {
	f := newFixture(t)

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "setlog://exercises"
	contents, err := f.h.exercises(f.ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "setlog://exercises", text.URI)
	assert.Contains(t, text.Text, `"name":"squat"`)

	req.Params.URI = "setlog://templates"
	contents, err = f.h.templates(f.ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0].(mcp.TextResourceContents).Text, `"name":"Legs"`)
}

// TestNewRegistersTools lists the tools through the JSON-RPC entry point.
func TestNewRegistersTools(t *testing.T) {
	f := newFixture(t)
	s := New(f.svc, "test", slog.New(slog.NewTextHandler(io.Discard, nil)))

	resp := s.HandleMessage(f.ctx, json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	for _, name := range []string{
		"list_templates", "materialize_template", "resolve_active_session",
		"get_session_progress", "log_set", "update_record", "get_exercise_history",
	} {
		assert.Contains(t, string(data), `"`+name+`"`)
	}
}

// TestMalformedSetValuesLeaveRecordsUntouched rejects values that cannot be
// stored exactly instead of coercing them to zero or truncating them.
func TestMalformedSetValuesLeaveRecordsUntouched(t *testing.T) {
	f := newFixture(t)

	session, err := f.svc.MaterializeTemplate(f.ctx, UserIDFromContext(f.ctx), f.tmpl.ID)
	require.NoError(t, err)
	res, err := f.h.logSet(f.ctx, call(map[string]any{
		"session_id":  session.ID.String(),
		"exercise_id": float64(f.squat.ID),
		"repetitions": float64(5),
		"load":        100.0,
	}))
	require.NoError(t, err)
	logged := decodeResult[models.ExerciseRecord](t, res)

	updates := []struct {
		name string
		args map[string]any
	}{
		{"word repetitions", map[string]any{"repetitions": "ten"}},
		{"null repetitions", map[string]any{"repetitions": nil}},
		{"fractional repetitions", map[string]any{"repetitions": 7.9}},
		{"null load", map[string]any{"load": nil}},
		{"word load", map[string]any{"load": "heavy"}},
		{"not a number load", map[string]any{"load": "NaN"}},
		{"null notes", map[string]any{"notes": nil}},
	}
	for _, tt := range updates {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]any{"record_id": float64(logged.ID)}
			for k, v := range tt.args {
				args[k] = v
			}
			res, err := f.h.updateRecord(f.ctx, call(args))
			require.NoError(t, err)
			assert.True(t, res.IsError, resultText(t, res))
		})
	}

	res, err = f.h.logSet(f.ctx, call(map[string]any{
		"session_id":  session.ID.String(),
		"exercise_id": float64(f.squat.ID),
		"repetitions": 7.9,
		"load":        100.0,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "whole number")

	res, err = f.h.getSessionProgress(f.ctx, call(map[string]any{"session_id": session.ID.String()}))
	require.NoError(t, err)
	progress := decodeResult[training.SessionProgress](t, res)
	require.Len(t, progress.Progress.Exercises, 1)
	entries := progress.Progress.Exercises[0].Entries
	require.Len(t, entries, 3, "two placeholders and the logged set")
	last := entries[len(entries)-1]
	assert.Equal(t, logged.ID, last.ID)
	assert.Equal(t, 5, last.Repetitions)
	assert.Equal(t, 100.0, last.Load)
	assert.Equal(t, training.StatusStarted, progress.Progress.Status)
}
