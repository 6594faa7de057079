// Package mcp exposes the training service as Model Context Protocol tools.
package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/setlog/internal/training"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer, or
// 0 when there is none.
func UserIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(svc *training.Service, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("setlog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("setlog strength-training journal. Start or continue today's session, "+
			"materialize workout templates, log sets and check per-exercise progress. "+
			"All data is scoped to the authenticated user."),
	)

	h := &handlers{svc: svc, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListTemplates, Handler: h.listTemplates},
		server.ServerTool{Tool: toolGetTemplate, Handler: h.getTemplate},
		server.ServerTool{Tool: toolMaterializeTemplate, Handler: h.materializeTemplate},
		server.ServerTool{Tool: toolResolveActiveSession, Handler: h.resolveActiveSession},
		server.ServerTool{Tool: toolListSessions, Handler: h.listSessions},
		server.ServerTool{Tool: toolGetSessionProgress, Handler: h.getSessionProgress},
		server.ServerTool{Tool: toolLogSet, Handler: h.logSet},
		server.ServerTool{Tool: toolUpdateRecord, Handler: h.updateRecord},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetExerciseHistory, Handler: h.getExerciseHistory},
	)

	s.AddResources(
		server.ServerResource{Resource: resTemplates, Handler: h.templates},
		server.ServerResource{Resource: resExercises, Handler: h.exercises},
	)

	return s
}

// Handler serves s over streamable HTTP. userID resolves the caller of each
// request.
func Handler(s *server.MCPServer, userID func(*http.Request) int64) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithStateLess(true),
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return WithUserID(ctx, userID(r))
		}),
	)
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	svc *training.Service
	log *slog.Logger
}

// --- Resource definitions ---

var resTemplates = mcp.NewResource(
	"setlog://templates",
	"Workout Templates",
	mcp.WithResourceDescription("Global templates and templates owned by the user, with their exercise lines"),
	mcp.WithMIMEType("application/json"),
)

var resExercises = mcp.NewResource(
	"setlog://exercises",
	"Exercise Catalog",
	mcp.WithResourceDescription("Every catalog exercise with its load unit and muscle tags"),
	mcp.WithMIMEType("application/json"),
)
