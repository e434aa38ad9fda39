// Package mcp exposes the review workflow as MCP tools so agent
// clients can queue, inspect, and decide summaries. Decisions still
// require an explicit reviewer identity: no tool approves on its own.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/sumgate/internal/models"
	"github.com/joescharf/sumgate/internal/workflow"
)

// Server wraps the workflow service and exposes it as MCP tools.
type Server struct {
	svc *workflow.Service
}

// NewServer creates the MCP server wrapper.
func NewServer(svc *workflow.Service) *Server {
	return &Server{svc: svc}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("sumgate", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.queueTool())
	srv.AddTool(s.showTool())
	srv.AddTool(s.approveTool())
	srv.AddTool(s.rejectTool())
	srv.AddTool(s.regenerateTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// recordOut is the JSON shape tools return for a review record.
type recordOut struct {
	ID               string   `json:"id"`
	DocumentID       string   `json:"document_id"`
	State            string   `json:"state"`
	Summary          string   `json:"summary"`
	Attempt          int      `json:"attempt"`
	Score            int      `json:"score"`
	FlaggedTooShort  bool     `json:"flagged_too_short"`
	FlaggedUncertain bool     `json:"flagged_uncertain"`
	MatchedKeywords  []string `json:"matched_keywords,omitempty"`
	HedgeTerms       []string `json:"hedge_terms,omitempty"`
	ReviewedBy       string   `json:"reviewed_by,omitempty"`
	Feedback         string   `json:"feedback,omitempty"`
	RegeneratedFrom  string   `json:"regenerated_from,omitempty"`
	CreatedAt        string   `json:"created_at"`
}

func toRecordOut(rec *models.ReviewRecord) recordOut {
	out := recordOut{
		ID:              rec.ID,
		DocumentID:      rec.DocumentID,
		State:           string(rec.State),
		Summary:         rec.Candidate.Text,
		Attempt:         rec.Candidate.Attempt,
		ReviewedBy:      rec.ReviewedBy,
		Feedback:        rec.Feedback,
		RegeneratedFrom: rec.RegeneratedFrom,
		CreatedAt:       rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.Report != nil {
		out.Score = rec.Report.Score
		out.FlaggedTooShort = rec.Report.FlaggedTooShort
		out.FlaggedUncertain = rec.Report.FlaggedUncertain
		out.MatchedKeywords = rec.Report.MatchedKeywords
		out.HedgeTerms = rec.Report.HedgeTerms
	}
	return out
}

func recordResult(rec *models.ReviewRecord) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(toRecordOut(rec))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal record: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// sumgate_queue
func (s *Server) queueTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("sumgate_queue",
		mcp.WithDescription("List scored summaries awaiting a human decision. Returns a JSON array of records with id, summary text, score (0-10), and advisory flags."),
	)
	return tool, s.handleQueue
}

func (s *Server) handleQueue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := s.svc.Queue(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list queue: %v", err)), nil
	}

	out := make([]recordOut, len(records))
	for i, rec := range records {
		out[i] = toRecordOut(rec)
	}

	data, err := json.Marshal(out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal queue: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// sumgate_show
func (s *Server) showTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("sumgate_show",
		mcp.WithDescription("Show one review record: summary text, quality report, state, and decision details."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Review record ID")),
	)
	return tool, s.handleShow
}

func (s *Server) handleShow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	rec, err := s.svc.Record(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("record not found: %s", id)), nil
	}
	return recordResult(rec)
}

// sumgate_approve
func (s *Server) approveTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("sumgate_approve",
		mcp.WithDescription("Approve a scored summary. Requires the reviewing human's identity; the decision is final and persisted to the approved destination."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Review record ID")),
		mcp.WithString("reviewer", mcp.Required(), mcp.Description("Name of the human reviewer making the decision")),
	)
	return tool, s.handleApprove
}

func (s *Server) handleApprove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	reviewer, err := request.RequireString("reviewer")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: reviewer"), nil
	}

	rec, err := s.svc.Approve(ctx, id, reviewer)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("approve failed: %v", err)), nil
	}
	return recordResult(rec)
}

// sumgate_reject
func (s *Server) rejectTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("sumgate_reject",
		mcp.WithDescription("Reject a scored summary with feedback. Feedback is mandatory — it is the only input to a later regeneration."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Review record ID")),
		mcp.WithString("reviewer", mcp.Required(), mcp.Description("Name of the human reviewer making the decision")),
		mcp.WithString("feedback", mcp.Required(), mcp.Description("What needs improvement")),
	)
	return tool, s.handleReject
}

func (s *Server) handleReject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}
	reviewer, err := request.RequireString("reviewer")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: reviewer"), nil
	}
	feedback, err := request.RequireString("feedback")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: feedback"), nil
	}

	rec, err := s.svc.Reject(ctx, id, reviewer, feedback)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reject failed: %v", err)), nil
	}
	return recordResult(rec)
}

// sumgate_regenerate
func (s *Server) regenerateTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("sumgate_regenerate",
		mcp.WithDescription("Generate a fresh draft for a rejected summary, steered by the rejection feedback. Creates a new record linked to the rejected one; only valid on rejected records."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Rejected review record ID")),
	)
	return tool, s.handleRegenerate
}

func (s *Server) handleRegenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: id"), nil
	}

	rec, err := s.svc.Regenerate(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("regenerate failed: %v", err)), nil
	}
	return recordResult(rec)
}
