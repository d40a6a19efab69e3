// Package mcp exposes the groundchat assistant as Model Context Protocol tools.
package mcp

import "time"

// AskInput defines the input parameters for the ask tool.
type AskInput struct {
	SessionID string `json:"session_id" jsonschema:"the chat session to ask in; history is kept per session"`
	Question  string `json:"question" jsonschema:"the question about the uploaded files"`
}

// AskOutput contains the assistant reply.
type AskOutput struct {
	// Answer is the text to show, including the grounding warning when present.
	Answer string `json:"answer"`
	// Grounded is false when the answer shares too little with the retrieved context.
	Grounded bool `json:"grounded"`
	// Mode is how the prompt was built: raw, summarize or targeted.
	Mode string `json:"mode"`
	// Error is the user-facing failure message when no answer was produced.
	Error string `json:"error,omitempty"`
}

// UploadFileInput defines the input parameters for the upload_file tool.
type UploadFileInput struct {
	Name    string `json:"name" jsonschema:"the file name; re-uploading a name replaces its previous content"`
	Content string `json:"content" jsonschema:"the full text content of the file"`
}

// PasteSnippetInput defines the input parameters for the paste_snippet tool.
type PasteSnippetInput struct {
	Snippet string `json:"snippet" jsonschema:"a code or text snippet to add to the context"`
}

// IndexOutput reports an indexed artifact.
type IndexOutput struct {
	SourceID string   `json:"source_id"`
	Chunks   int      `json:"chunks"`
	Outline  []string `json:"outline,omitempty"` // Heading paths for markdown files
}

// DeleteFileInput defines the input parameters for the delete_file tool.
type DeleteFileInput struct {
	Name string `json:"name" jsonschema:"the file name to remove from the context"`
}

// DeleteFileOutput confirms a deletion.
type DeleteFileOutput struct {
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}

// ListFilesInput takes no parameters.
type ListFilesInput struct{}

// ListFilesOutput contains the indexed file names.
type ListFilesOutput struct {
	Files []string `json:"files"`
	Count int      `json:"count"`
}

// SessionInput identifies a chat session.
type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"the chat session id"`
}

// Turn is one conversation entry.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// HistoryOutput contains a session's conversation.
type HistoryOutput struct {
	SessionID string `json:"session_id"`
	Label     string `json:"label"`
	Turns     []Turn `json:"turns"`
}

// ClearHistoryOutput confirms a cleared session.
type ClearHistoryOutput struct {
	SessionID string `json:"session_id"`
	Cleared   bool   `json:"cleared"`
}

// StatusInput takes no parameters.
type StatusInput struct{}

// StatusOutput describes the index and the stored sessions.
type StatusOutput struct {
	Collection string   `json:"collection"`
	Chunks     uint64   `json:"chunks"`
	Files      []string `json:"files"`
	FileCount  int      `json:"file_count"`
	Sessions   int      `json:"sessions"`
}
