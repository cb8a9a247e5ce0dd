package mcpserver

// NoteFormatContract describes how notes are stored and formatted so LLM
// consumers produce files the board and editor understand.
const NoteFormatContract = `# merely Note Format Contract

Every note is one UTF-8 Markdown file inside the vault.

## Files

1. **Paths** are vault-relative, use forward slashes and end with ` + "`" + `.md` + "`" + `
   (e.g. ` + "`" + `projects/plan.md` + "`" + `).
2. **File names** may not contain ` + "`" + `< > : " / \ | ? *` + "`" + ` or control characters;
   such characters are replaced with ` + "`" + `_` + "`" + ` on rename and import.
3. **Content** is plain Markdown. Optional YAML frontmatter may open the file.

## Titles

The board title is, in order of preference:

1. the ` + "`" + `title` + "`" + ` frontmatter field,
2. the first level-1 heading (` + "`" + `# Title` + "`" + `),
3. the file name without ` + "`" + `.md` + "`" + `.

After a rename the title follows the new file name.

## Formatting operations

Use the ` + "`" + `format_markdown` + "`" + ` tool to apply the same edits as the editor toolbar:

| op | effect |
|----|--------|
| bold | wrap selection in ` + "`" + `**` + "`" + ` |
| italic | wrap selection in ` + "`" + `*` + "`" + ` |
| code | wrap selection in backticks |
| heading | toggle ` + "`" + `#` + "`" + ` prefix (level 1-6) on the selected lines |
| bullet | toggle ` + "`" + `- ` + "`" + ` on the selected lines |
| link | insert ` + "`" + `[text](url)` + "`" + `; URLs without a scheme get https:// |

Cursor and selection positions count characters, not bytes.

## Example

` + "```" + `markdown
---
title: Weekly standup
---

# Weekly standup

- **Done:** shipped the importer
- *Next:* see [the plan](https://example.com/plan)
` + "```" + `
`
