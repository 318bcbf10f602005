package constant

// VideoExtensions lists the file extensions offered by the add-files prompt completion.
var VideoExtensions = []string{".mp4", ".mkv", ".avi", ".mov", ".webm", ".m4v", ".ts"}
