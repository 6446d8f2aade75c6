package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/liftprog/internal/progression"
	"github.com/meltforce/liftprog/internal/tracker"
)

// New creates an MCP server with all tools and resources registered. unit is
// the display unit used when a tool call does not name one.
func New(svc *tracker.Service, unit progression.Unit, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("liftprog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("liftprog tracks a periodized strength program. Each exercise has a training max (pounds), a current phase and a session within it. Record completed sessions with the reps of every set; the last set decides how the max changes. Use change_phase to move between phases once a phase's sessions are done."),
	)

	h := &handlers{svc: svc, unit: unit, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListPhases, Handler: h.listPhases},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetExercise, Handler: h.getExercise},
		server.ServerTool{Tool: toolAddExercise, Handler: h.addExercise},
		server.ServerTool{Tool: toolRecordSession, Handler: h.recordSession},
		server.ServerTool{Tool: toolChangePhase, Handler: h.changePhase},
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resCatalog, Handler: h.catalog},
		server.ServerResource{Resource: resExercises, Handler: h.exercises},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	svc  *tracker.Service
	unit progression.Unit
	log  *slog.Logger
}

// --- Resource definitions ---

var resCatalog = mcp.NewResource(
	"liftprog://catalog",
	"Program Catalog",
	mcp.WithResourceDescription("Every phase of the program in order: sets, reps, percentages, sessions and progression rules"),
	mcp.WithMIMEType("application/json"),
)

var resExercises = mcp.NewResource(
	"liftprog://exercises",
	"Tracked Exercises",
	mcp.WithResourceDescription("All tracked exercises with their current max, phase and session"),
	mcp.WithMIMEType("application/json"),
)
