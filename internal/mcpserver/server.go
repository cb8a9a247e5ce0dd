// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes merely note tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/merely/internal/apperr"
	"github.com/starford/merely/internal/format"
	"github.com/starford/merely/internal/models"
	"github.com/starford/merely/internal/reconciler"
	"github.com/starford/merely/internal/render"
	"github.com/starford/merely/internal/textbuf"
)

const contractURI = "merely://note-format"

// Notes is the subset of the reconciler the tools call.
type Notes interface {
	List(ctx context.Context) ([]models.Note, error)
	Open(ctx context.Context, filePath string) (*reconciler.Document, error)
	Save(ctx context.Context, filePath string, content []byte) (*models.Note, error)
	Rename(ctx context.Context, oldPath, newPath string) (*models.Note, error)
	Delete(ctx context.Context, filePath string) error
	OpenAs(ctx context.Context, srcPath string) (*models.Note, error)
}

var _ Notes = (*reconciler.Reconciler)(nil)

// Server wraps the MCP server with merely tools.
type Server struct {
	mcp   *server.MCPServer
	notes Notes
}

// New creates a new MCP server with all tools registered.
func New(notes Notes, version string) *Server {
	s := &Server{notes: notes}

	s.mcp = server.NewMCPServer(
		"merely",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes on the board, most recently updated first."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Create or overwrite a Markdown note. Read the note format contract "+
			"first via get_note_contract or the "+contractURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path (must end with .md)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Full Markdown content")),
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("rename_note",
		mcp.WithDescription("Rename or move a note. The file name is sanitised and the title follows it."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Current vault-relative path")),
		mcp.WithString("to", mcp.Required(), mcp.Description("New vault-relative path")),
	), s.renameNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note file and its board record."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Vault-relative path")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("import_note",
		mcp.WithDescription("Copy an external Markdown file into the vault root and add it to the board."),
		mcp.WithString("source", mcp.Required(), mcp.Description("Absolute path of the file to import")),
	), s.importNote)

	s.mcp.AddTool(mcp.NewTool("format_markdown",
		mcp.WithDescription("Apply an editor formatting operation to a text buffer and return the new buffer."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Buffer content")),
		mcp.WithString("op", mcp.Required(), mcp.Description("Operation"), mcp.Enum(format.Ops...)),
		mcp.WithNumber("cursor", mcp.Description("Selection start in characters")),
		mcp.WithNumber("selection_length", mcp.Description("Selection length in characters")),
		mcp.WithNumber("level", mcp.Description("Heading level 1-6 (heading only)")),
		mcp.WithString("display_text", mcp.Description("Link text when nothing is selected (link only)")),
		mcp.WithString("url", mcp.Description("Link target (link only)")),
	), s.formatMarkdown)

	s.mcp.AddTool(mcp.NewTool("preview_markdown",
		mcp.WithDescription("Render Markdown to an HTML fragment."),
		mcp.WithString("markdown", mcp.Required(), mcp.Description("Markdown source")),
	), s.previewMarkdown)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the note format contract. "+
			"Call this before creating or updating notes to ensure correct structure."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Note Format Contract",
			mcp.WithResourceDescription("How notes are stored, titled and formatted."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.notes.List(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(notes)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.notes.Open(ctx, path)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(doc.Content), nil
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.Save(ctx, path, []byte(content))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

func (s *Server) renameNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.Rename(ctx, from, to)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.notes.Delete(ctx, path); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", path)), nil
}

func (s *Server) importNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.notes.OpenAs(ctx, src)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(note)
}

type formatResult struct {
	Text            string `json:"text"`
	Cursor          int    `json:"cursor"`
	SelectionLength int    `json:"selection_length"`
}

func (s *Server) formatMarkdown(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	op, err := req.RequireString("op")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	buf := textbuf.New(text, req.GetInt("cursor", 0), req.GetInt("selection_length", 0))
	out, err := format.Apply(buf, format.Request{
		Op:    op,
		Level: req.GetInt("level", 0),
		Text:  req.GetString("display_text", ""),
		URL:   req.GetString("url", ""),
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(formatResult{
		Text:            out.Text(),
		Cursor:          out.Cursor(),
		SelectionLength: out.SelectionLength(),
	})
}

func (s *Server) previewMarkdown(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	md, err := req.RequireString("markdown")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(render.HTML(md)), nil
}

func (s *Server) getNoteContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}

// toolError turns a domain error into a tool-level error result.
func toolError(err error) *mcp.CallToolResult {
	var ve *apperr.ValidationError
	switch {
	case errors.As(err, &ve):
		return mcp.NewToolResultError(ve.Error())
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found")
	case errors.Is(err, apperr.ErrAlreadyExists):
		return mcp.NewToolResultError("already exists")
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcp: encode result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}
