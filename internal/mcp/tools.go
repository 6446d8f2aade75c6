package mcp

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/liftprog/internal/progression"
	"github.com/meltforce/liftprog/internal/storage"
	"github.com/meltforce/liftprog/internal/tracker"
)

// --- Tool definitions ---

var toolListPhases = mcp.NewTool("list_phases",
	mcp.WithDescription("List the program's phases in order with sets, target reps, percentages of max, sessions per phase and progression rules."),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List tracked exercises with current max weight, phase and session number."),
	mcp.WithString("unit", mcp.Description("Display unit. Defaults to the server setting."), mcp.Enum("lbs", "kg")),
)

var toolGetExercise = mcp.NewTool("get_exercise",
	mcp.WithDescription("Show the current session of an exercise: target reps and weight per set, saved draft reps and the phase's progression rules."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name")),
	mcp.WithString("unit", mcp.Description("Display unit. Defaults to the server setting."), mcp.Enum("lbs", "kg")),
)

var toolAddExercise = mcp.NewTool("add_exercise",
	mcp.WithDescription("Start tracking a new exercise at the first phase."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Unique exercise name")),
	mcp.WithNumber("max_weight", mcp.Required(), mcp.Description("Training max in pounds, greater than 0")),
)

var toolRecordSession = mcp.NewTool("record_session",
	mcp.WithDescription("Complete the current session. The last set's reps decide the new max. On the final session of a phase the session counter wraps to 1 and the phase stays; call change_phase to move on."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name")),
	mcp.WithString("reps", mcp.Description("Reps completed per set, comma-separated (e.g. '10,10,9'). One value per set. Omit to use the saved draft.")),
	mcp.WithString("unit", mcp.Description("Unit for the message. Defaults to the server setting."), mcp.Enum("lbs", "kg")),
)

var toolChangePhase = mcp.NewTool("change_phase",
	mcp.WithDescription("Move an exercise to the next or previous phase. The max weight is unchanged; the session restarts at 1."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name")),
	mcp.WithString("direction", mcp.Required(), mcp.Description("Which way to move"), mcp.Enum("next", "previous")),
	mcp.WithString("unit", mcp.Description("Unit for the message. Defaults to the server setting."), mcp.Enum("lbs", "kg")),
)

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("Completed sessions for an exercise, newest first, with reps and max before and after."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name")),
	mcp.WithNumber("limit", mcp.Description("Maximum entries. Defaults to 50.")),
)

// --- Handlers ---

func (h *handlers) listPhases(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.svc.PhaseInfos())
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	unit, err := h.unitArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	list, err := h.svc.ListExercises(ctx)
	if err != nil {
		return h.toolError("list exercises", err), nil
	}
	return jsonResult(tracker.Summarize(list, unit))
}

func (h *handlers) getExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	unit, err := h.unitArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := h.svc.View(ctx, name, unit)
	if err != nil {
		return h.toolError("get exercise", err), nil
	}
	return jsonResult(v)
}

func (h *handlers) addExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	weight, err := req.RequireFloat("max_weight")
	if err != nil {
		return mcp.NewToolResultError("max_weight parameter is required"), nil
	}
	ex, err := h.svc.AddExercise(ctx, name, strconv.FormatFloat(weight, 'f', -1, 64))
	if err != nil {
		return h.toolError("add exercise", err), nil
	}
	return jsonResult(map[string]any{
		"exercise": ex,
		"message":  "Exercise added successfully!",
	})
}

func (h *handlers) recordSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	unit, err := h.unitArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := h.svc.CompleteSession(ctx, name, splitReps(req.GetString("reps", "")))
	if err != nil {
		return h.toolError("record session", err), nil
	}
	return jsonResult(map[string]any{
		"result":  res,
		"message": tracker.Message(res, unit),
	})
}

func (h *handlers) changePhase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	raw, err := req.RequireString("direction")
	if err != nil {
		return mcp.NewToolResultError("direction parameter is required"), nil
	}
	dir, err := progression.ParseDirection(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	unit, err := h.unitArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := h.svc.ChangePhase(ctx, name, dir)
	if err != nil {
		return h.toolError("change phase", err), nil
	}
	return jsonResult(map[string]any{
		"result":  res,
		"message": tracker.Message(res, unit),
	})
}

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	logs, err := h.svc.History(ctx, name, req.GetInt("limit", 0))
	if err != nil {
		return h.toolError("get history", err), nil
	}
	return jsonResult(logs)
}

func (h *handlers) unitArg(req mcp.CallToolRequest) (progression.Unit, error) {
	v := req.GetString("unit", "")
	if v == "" {
		return h.unit, nil
	}
	return progression.ParseUnit(v)
}

// toolError turns a tracker error into a tool error. Input problems are the
// caller's to fix; anything else is logged.
func (h *handlers) toolError(op string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, progression.ErrInvalidName),
		errors.Is(err, progression.ErrInvalidWeight),
		errors.Is(err, progression.ErrIncompleteInput),
		errors.Is(err, progression.ErrDuplicateExercise),
		errors.Is(err, storage.ErrNotFound):
		return mcp.NewToolResultError(err.Error())
	case tracker.IsDataIntegrity(err):
		h.log.Error("mcp: data integrity error", "op", op, "error", err)
		return mcp.NewToolResultError("data integrity error: " + err.Error())
	default:
		h.log.Error("mcp: tool failed", "op", op, "error", err)
		return mcp.NewToolResultError(op + " failed: " + err.Error())
	}
}

// splitReps turns "10, 10,9" into one entry per set. Blank input means nil,
// which selects the saved draft.
func splitReps(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
