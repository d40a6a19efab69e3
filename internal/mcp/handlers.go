package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/groundchat/internal/assistant"
	"github.com/bull/groundchat/internal/indexer"
)

var errMissingSessionID = errors.New("session_id is required")

// makeAskHandler creates the ask tool handler. A failed turn is still a
// successful tool call: the message is logged in the session and returned in
// AskOutput.Error.
func makeAskHandler(m *assistant.Manager, logger *slog.Logger) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		if input.SessionID == "" {
			return nil, AskOutput{}, errMissingSessionID
		}
		if strings.TrimSpace(input.Question) == "" {
			return nil, AskOutput{}, errors.New("question is required")
		}

		logger.Debug("MCP ask request", "session", input.SessionID)

		reply, err := m.Session(input.SessionID).Ask(ctx, input.Question)
		if err != nil {
			return nil, AskOutput{}, fmt.Errorf("failed to ask: %w", err)
		}

		out := AskOutput{
			Answer:   reply.Text,
			Grounded: reply.Grounded,
			Mode:     string(reply.Mode),
		}
		if reply.Err != nil {
			out.Error = reply.Text
		}
		return nil, out, nil
	}
}

// makeUploadHandler creates the upload_file tool handler.
func makeUploadHandler(m *assistant.Manager) func(
	context.Context, *mcp.CallToolRequest, UploadFileInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input UploadFileInput) (
		*mcp.CallToolResult, IndexOutput, error,
	) {
		if input.Name == "" {
			return nil, IndexOutput{}, errors.New("name is required")
		}
		res, err := m.Replace(ctx, input.Name, input.Content)
		if err != nil {
			return nil, IndexOutput{}, fmt.Errorf("failed to index %s: %w", input.Name, err)
		}
		return nil, toIndexOutput(res), nil
	}
}

// makePasteHandler creates the paste_snippet tool handler.
func makePasteHandler(m *assistant.Manager) func(
	context.Context, *mcp.CallToolRequest, PasteSnippetInput,
) (*mcp.CallToolResult, IndexOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PasteSnippetInput) (
		*mcp.CallToolResult, IndexOutput, error,
	) {
		res, err := m.Paste(ctx, input.Snippet)
		if err != nil {
			return nil, IndexOutput{}, fmt.Errorf("failed to index snippet: %w", err)
		}
		return nil, toIndexOutput(res), nil
	}
}

// makeDeleteHandler creates the delete_file tool handler.
func makeDeleteHandler(m *assistant.Manager) func(
	context.Context, *mcp.CallToolRequest, DeleteFileInput,
) (*mcp.CallToolResult, DeleteFileOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteFileInput) (
		*mcp.CallToolResult, DeleteFileOutput, error,
	) {
		if input.Name == "" {
			return nil, DeleteFileOutput{}, errors.New("name is required")
		}
		if err := m.Delete(ctx, input.Name); err != nil {
			return nil, DeleteFileOutput{}, fmt.Errorf("failed to delete %s: %w", input.Name, err)
		}
		return nil, DeleteFileOutput{Name: input.Name, Deleted: true}, nil
	}
}

// makeListHandler creates the list_files tool handler.
func makeListHandler(m *assistant.Manager) func(
	context.Context, *mcp.CallToolRequest, ListFilesInput,
) (*mcp.CallToolResult, ListFilesOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListFilesInput) (
		*mcp.CallToolResult, ListFilesOutput, error,
	) {
		files, err := m.Files(ctx)
		if err != nil {
			return nil, ListFilesOutput{}, fmt.Errorf("failed to list files: %w", err)
		}
		if files == nil {
			files = []string{} // Ensure non-nil for JSON marshaling
		}
		return nil, ListFilesOutput{Files: files, Count: len(files)}, nil
	}
}

// makeHistoryHandler creates the get_history tool handler.
func makeHistoryHandler(m *assistant.Manager) func(
	context.Context, *mcp.CallToolRequest, SessionInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SessionInput) (
		*mcp.CallToolResult, HistoryOutput, error,
	) {
		if input.SessionID == "" {
			return nil, HistoryOutput{}, errMissingSessionID
		}
		s := m.Session(input.SessionID)
		turns, err := s.History(ctx)
		if err != nil {
			return nil, HistoryOutput{}, fmt.Errorf("failed to load history: %w", err)
		}
		label, err := s.Label(ctx)
		if err != nil {
			return nil, HistoryOutput{}, fmt.Errorf("failed to load history: %w", err)
		}

		out := HistoryOutput{SessionID: input.SessionID, Label: label, Turns: make([]Turn, 0, len(turns))}
		for _, t := range turns {
			out.Turns = append(out.Turns, Turn{Role: string(t.Role), Text: t.Text, At: t.At})
		}
		return nil, out, nil
	}
}

// makeClearHandler creates the clear_history tool handler.
func makeClearHandler(m *assistant.Manager) func(
	context.Context, *mcp.CallToolRequest, SessionInput,
) (*mcp.CallToolResult, ClearHistoryOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SessionInput) (
		*mcp.CallToolResult, ClearHistoryOutput, error,
	) {
		if input.SessionID == "" {
			return nil, ClearHistoryOutput{}, errMissingSessionID
		}
		if err := m.Session(input.SessionID).Clear(ctx); err != nil {
			return nil, ClearHistoryOutput{}, fmt.Errorf("failed to clear history: %w", err)
		}
		return nil, ClearHistoryOutput{SessionID: input.SessionID, Cleared: true}, nil
	}
}

// makeStatusHandler creates the index_status tool handler.
func makeStatusHandler(m *assistant.Manager, stats StatsSource) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		st, err := stats.Stats(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("qdrant_error: failed to get index stats: %w", err)
		}
		sessions, err := m.Sessions(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("failed to list sessions: %w", err)
		}

		files := st.Sources
		if files == nil {
			files = []string{}
		}
		return nil, StatusOutput{
			Collection: st.Collection,
			Chunks:     st.Points,
			Files:      files,
			FileCount:  len(files),
			Sessions:   len(sessions),
		}, nil
	}
}

func toIndexOutput(res *indexer.Result) IndexOutput {
	out := IndexOutput{SourceID: res.SourceID, Chunks: res.Chunks}
	for _, h := range res.Outline {
		out.Outline = append(out.Outline, h.Path)
	}
	return out
}
