package mcpserver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/merely/internal/models"
	"github.com/starford/merely/internal/reconciler"
	"github.com/starford/merely/internal/testutil"
)

func testServer(t *testing.T) (*Server, string) {
	t.Helper()
	vaultDir, store := testutil.TestVault(t)
	rec := reconciler.New(store, testutil.TestDB(t), reconciler.WithLogger(testutil.DiscardLogger()))
	return New(rec, "test"), vaultDir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" helper, so the handlers are invoked
	// directly.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_notes":        srv.listNotes,
		"read_note":         srv.readNote,
		"save_note":         srv.saveNote,
		"rename_note":       srv.renameNote,
		"delete_note":       srv.deleteNote,
		"import_note":       srv.importNote,
		"format_markdown":   srv.formatMarkdown,
		"preview_markdown":  srv.previewMarkdown,
		"get_note_contract": srv.getNoteContract,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestSaveAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "save_note", map[string]any{
		"path":    "test.md",
		"content": "# Test\nHello",
	})
	if r.IsError {
		t.Fatalf("save failed: %s", resultText(r))
	}
	var note models.Note
	if err := json.Unmarshal([]byte(resultText(r)), &note); err != nil {
		t.Fatal(err)
	}
	if note.ID <= 0 || note.Title != "Test" {
		t.Errorf("note = %+v", note)
	}

	r = callTool(t, srv, "read_note", map[string]any{"path": "test.md"})
	if text := resultText(r); text != "# Test\nHello" {
		t.Errorf("read result = %q", text)
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t)
	callTool(t, srv, "save_note", map[string]any{"path": "a.md", "content": "a"})
	callTool(t, srv, "save_note", map[string]any{"path": "b.md", "content": "b"})

	r := callTool(t, srv, "list_notes", map[string]any{})
	var notes []models.Note
	if err := json.Unmarshal([]byte(resultText(r)), &notes); err != nil {
		t.Fatalf("decode %q: %v", resultText(r), err)
	}
	if len(notes) != 2 {
		t.Errorf("len(notes) = %d, want 2", len(notes))
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]any{"path": "nope.md"})
	if !r.IsError {
		t.Error("expected error for missing note")
	}
}

func TestSaveNote_MissingArgument(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "save_note", map[string]any{"path": "x.md"})
	if !r.IsError {
		t.Error("expected error for missing content")
	}
}

func TestRenameAndDeleteNote(t *testing.T) {
	srv, vaultDir := testServer(t)
	callTool(t, srv, "save_note", map[string]any{"path": "old.md", "content": "# Old"})

	r := callTool(t, srv, "rename_note", map[string]any{"from": "old.md", "to": "new.md"})
	if r.IsError {
		t.Fatalf("rename failed: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"file_path": "new.md"`) {
		t.Errorf("rename result = %s", resultText(r))
	}

	r = callTool(t, srv, "rename_note", map[string]any{"from": "old.md", "to": "other.md"})
	if !r.IsError || resultText(r) != "not found" {
		t.Errorf("rename missing = %q, error=%v", resultText(r), r.IsError)
	}

	r = callTool(t, srv, "delete_note", map[string]any{"path": "new.md"})
	if r.IsError {
		t.Fatalf("delete failed: %s", resultText(r))
	}
	if _, err := os.Stat(filepath.Join(vaultDir, "new.md")); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
}

func TestImportNote(t *testing.T) {
	srv, vaultDir := testServer(t)
	src := filepath.Join(t.TempDir(), "outside.md")
	if err := os.WriteFile(src, []byte("# Outside"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, srv, "import_note", map[string]any{"source": src})
	if r.IsError {
		t.Fatalf("import failed: %s", resultText(r))
	}
	if _, err := os.Stat(filepath.Join(vaultDir, "outside.md")); err != nil {
		t.Errorf("imported file missing: %v", err)
	}
}

func TestFormatMarkdown(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "format_markdown", map[string]any{
		"text":             "one\ntwo",
		"op":               "bullet",
		"cursor":           float64(0),
		"selection_length": float64(7),
	})
	if r.IsError {
		t.Fatalf("format failed: %s", resultText(r))
	}
	var got formatResult
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatal(err)
	}
	if got.Text != "- one\n- two" {
		t.Errorf("text = %q", got.Text)
	}

	r = callTool(t, srv, "format_markdown", map[string]any{"text": "x", "op": "link", "url": "bad url"})
	if !r.IsError {
		t.Error("expected error for rejected URL")
	}
	r = callTool(t, srv, "format_markdown", map[string]any{"text": "x", "op": "strike"})
	if !r.IsError {
		t.Error("expected error for unknown op")
	}
}

func TestPreviewMarkdown(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "preview_markdown", map[string]any{"markdown": "# Hi"})
	if !strings.Contains(resultText(r), "<h1") {
		t.Errorf("preview = %q", resultText(r))
	}
}

func TestGetNoteContract(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "get_note_contract", map[string]any{})
	if resultText(r) != NoteFormatContract {
		t.Error("contract text mismatch")
	}
}
