package seniority

import (
	"path"
	"strings"
)

var languageByExtension = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".mjs":   "javascript",
	".cjs":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".kt":    "kotlin",
	".kts":   "kotlin",
	".rb":    "ruby",
	".rs":    "rust",
	".cs":    "csharp",
	".c":     "c",
	".h":     "c",
	".cc":    "cpp",
	".cpp":   "cpp",
	".cxx":   "cpp",
	".hpp":   "cpp",
	".swift": "swift",
	".m":     "objective-c",
	".php":   "php",
	".scala": "scala",
	".ex":    "elixir",
	".exs":   "elixir",
	".hs":    "haskell",
	".lua":   "lua",
	".dart":  "dart",
	".sql":   "sql",
	".sh":    "shell",
	".bash":  "shell",
	".vue":   "vue",
	".tf":    "terraform",
}

// LanguageForPath returns the language for a file path's extension, or ""
// when the extension is missing or unknown.
func LanguageForPath(filePath string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(filePath)))
	if ext == "" {
		return ""
	}
	return languageByExtension[ext]
}
