package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/claude/setlog/internal/models"
	"github.com/claude/setlog/internal/training"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Tool definitions ---

var toolListTemplates = mcp.NewTool("list_templates",
	mcp.WithDescription("List workout templates visible to the user: global templates and the user's own. Each template lists its exercises and prescribed set counts."),
)

var toolGetTemplate = mcp.NewTool("get_template",
	mcp.WithDescription("Get one workout template with its exercise lines in order."),
	mcp.WithNumber("template_id", mcp.Required(), mcp.Description("Template ID")),
)

var toolMaterializeTemplate = mcp.NewTool("materialize_template",
	mcp.WithDescription("Start a new session dated today from a template. Creates one empty set (0 reps, 0 load) per prescribed set, to be filled in with log_set or update_record. Calling it twice creates two sessions."),
	mcp.WithNumber("template_id", mcp.Required(), mcp.Description("Template ID")),
)

var toolResolveActiveSession = mcp.NewTool("resolve_active_session",
	mcp.WithDescription("Return the session to continue: the latest session dated today or yesterday, or a new empty session dated today. The result says whether a session was created."),
	mcp.WithString("date", mcp.Description("Today's date (YYYY-MM-DD). Defaults to the server's today.")),
)

var toolListSessions = mcp.NewTool("list_sessions",
	mcp.WithDescription("List the user's training sessions, most recent first."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions. Defaults to 20.")),
)

var toolGetSessionProgress = mcp.NewTool("get_session_progress",
	mcp.WithDescription("Per-exercise progress of a session. Each exercise lists its sets, the load x reps value of each set, and a status: pending (nothing done), started (some sets done) or finished (all sets done)."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID (UUID)")),
)

var toolLogSet = mcp.NewTool("log_set",
	mcp.WithDescription("Append a performed set to a session."),
	mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID (UUID)")),
	mcp.WithNumber("exercise_id", mcp.Required(), mcp.Description("Exercise ID from list_exercises")),
	mcp.WithNumber("repetitions", mcp.Required(), mcp.Description("Repetitions performed")),
	mcp.WithNumber("load", mcp.Required(), mcp.Description("Load in the exercise's unit")),
	mcp.WithString("notes", mcp.Description("Free-form notes")),
)

var toolUpdateRecord = mcp.NewTool("update_record",
	mcp.WithDescription("Fill in or correct a logged set, for example one created by materialize_template. Omitted fields are left unchanged."),
	mcp.WithNumber("record_id", mcp.Required(), mcp.Description("Record ID from get_session_progress")),
	mcp.WithNumber("repetitions", mcp.Description("Repetitions performed")),
	mcp.WithNumber("load", mcp.Description("Load in the exercise's unit")),
	mcp.WithString("notes", mcp.Description("Free-form notes")),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise catalog with load units."),
)

var toolGetExerciseHistory = mcp.NewTool("get_exercise_history",
	mcp.WithDescription("Every set the user logged for an exercise, oldest first, plus the personal record (highest load)."),
	mcp.WithNumber("exercise_id", mcp.Required(), mcp.Description("Exercise ID")),
)

// --- Tool handlers ---

func (h *handlers) listTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.svc.ListTemplates(ctx, UserIDFromContext(ctx))
	if err != nil {
		return h.fail("list_templates", err), nil
	}
	return jsonResult(templates), nil
}

func (h *handlers) getTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("template_id")
	if err != nil {
		return mcp.NewToolResultError("template_id parameter is required"), nil
	}
	t, err := h.svc.GetTemplate(ctx, UserIDFromContext(ctx), int64(id))
	if err != nil {
		return h.fail("get_template", err), nil
	}
	return jsonResult(t), nil
}

func (h *handlers) materializeTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("template_id")
	if err != nil {
		return mcp.NewToolResultError("template_id parameter is required"), nil
	}
	session, err := h.svc.MaterializeTemplate(ctx, UserIDFromContext(ctx), int64(id))
	if err != nil {
		return h.fail("materialize_template", err), nil
	}
	return jsonResult(session), nil
}

func (h *handlers) resolveActiveSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	today := h.svc.Today()
	if s := req.GetString("date", ""); s != "" {
		d, err := models.ParseDate(s)
		if err != nil {
			return mcp.NewToolResultError("invalid date format, want YYYY-MM-DD"), nil
		}
		today = d
	}
	session, created, err := h.svc.ResolveActiveSession(ctx, UserIDFromContext(ctx), today)
	if err != nil {
		return h.fail("resolve_active_session", err), nil
	}
	return jsonResult(map[string]any{"session": session, "created": created}), nil
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}
	sessions, err := h.svc.ListSessions(ctx, UserIDFromContext(ctx))
	if err != nil {
		return h.fail("list_sessions", err), nil
	}
	if len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return jsonResult(sessions), nil
}

func (h *handlers) getSessionProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := sessionID(req)
	if res != nil {
		return res, nil
	}
	progress, err := h.svc.ClassifySession(ctx, UserIDFromContext(ctx), id)
	if err != nil {
		return h.fail("get_session_progress", err), nil
	}
	return jsonResult(progress), nil
}

func (h *handlers) logSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, res := sessionID(req)
	if res != nil {
		return res, nil
	}
	exerciseID, err := req.RequireInt("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	reps, res := repetitions(req)
	if res != nil {
		return res, nil
	}
	load, err := req.RequireFloat("load")
	if err != nil {
		return mcp.NewToolResultError("load parameter is required"), nil
	}

	rec, err := h.svc.LogSet(ctx, UserIDFromContext(ctx), id, training.LogSetParams{
		ExerciseID:  int64(exerciseID),
		Repetitions: reps,
		Load:        load,
		Notes:       req.GetString("notes", ""),
	})
	if err != nil {
		return h.fail("log_set", err), nil
	}
	return jsonResult(rec), nil
}

func (h *handlers) updateRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("record_id")
	if err != nil {
		return mcp.NewToolResultError("record_id parameter is required"), nil
	}

	var upd models.RecordUpdate
	args := req.GetArguments()
	if _, ok := args["repetitions"]; ok {
		reps, res := repetitions(req)
		if res != nil {
			return res, nil
		}
		upd.Repetitions = &reps
	}
	if _, ok := args["load"]; ok {
		load, err := req.RequireFloat("load")
		if err != nil {
			return mcp.NewToolResultError("load must be a number"), nil
		}
		upd.Load = &load
	}
	if _, ok := args["notes"]; ok {
		notes, err := req.RequireString("notes")
		if err != nil {
			return mcp.NewToolResultError("notes must be a string"), nil
		}
		upd.Notes = &notes
	}

	rec, err := h.svc.UpdateRecord(ctx, UserIDFromContext(ctx), int64(id), upd)
	if err != nil {
		return h.fail("update_record", err), nil
	}
	return jsonResult(rec), nil
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.svc.ListExercises(ctx)
	if err != nil {
		return h.fail("list_exercises", err), nil
	}
	return jsonResult(exercises), nil
}

func (h *handlers) getExerciseHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireInt("exercise_id")
	if err != nil {
		return mcp.NewToolResultError("exercise_id parameter is required"), nil
	}
	history, err := h.svc.ExerciseHistory(ctx, UserIDFromContext(ctx), int64(id))
	if err != nil {
		return h.fail("get_exercise_history", err), nil
	}
	return jsonResult(history), nil
}

// repetitions reads a whole repetition count. Fractional values are
// rejected rather than truncated.
func repetitions(req mcp.CallToolRequest) (int, *mcp.CallToolResult) {
	f, err := req.RequireFloat("repetitions")
	if err != nil {
		return 0, mcp.NewToolResultError("repetitions must be a number")
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, mcp.NewToolResultError(fmt.Sprintf("repetitions must be a whole number, got %g", f))
	}
	return int(f), nil
}

func sessionID(req mcp.CallToolRequest) (uuid.UUID, *mcp.CallToolResult) {
	s, err := req.RequireString("session_id")
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError("session_id parameter is required")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError("session_id must be a UUID")
	}
	return id, nil
}

// fail turns a service error into a tool error. Errors the caller can fix
// are returned as is; anything else is logged.
func (h *handlers) fail(tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, training.ErrNotFound),
		errors.Is(err, training.ErrInvalidInput),
		errors.Is(err, training.ErrAlreadyExists),
		errors.Is(err, training.ErrForbidden):
		return mcp.NewToolResultError(err.Error())
	}
	h.log.Error("mcp "+tool, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", tool, err))
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}
