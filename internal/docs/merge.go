package docs

import (
	"fmt"
	"os"
	"strings"
)

// Generated-section delimiters. Content between a matching pair is owned by
// the generator; everything outside it belongs to the user.
const (
	markerBegin = "BEGIN GENERATED API REFERENCE"
	markerEnd   = "END GENERATED API REFERENCE"
)

// sectionMarkers returns the comment-wrapped delimiter lines for a format.
func sectionMarkers(format string) (begin, end string) {
	if format == "sphinx" {
		return ".. " + markerBegin, ".. " + markerEnd
	}
	return "<!-- " + markerBegin + " -->", "<!-- " + markerEnd + " -->"
}

// mergeSection writes content into path. If the file does not exist the
// content is written wrapped in markers. If it exists, only the delimited
// section is replaced; a file without markers gets the section appended.
// Existing content outside the markers is preserved byte for byte.
func mergeSection(path, content, format string) error {
	begin, end := sectionMarkers(format)
	section := begin + "\n" + content + "\n" + end + "\n"

	existing, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return writeDocFile(path, section)
	}
	if err != nil {
		return fmt.Errorf("read existing doc %s: %w", path, err)
	}

	text := string(existing)
	beginIdx := strings.Index(text, begin)
	endIdx := strings.Index(text, end)
	if beginIdx >= 0 && endIdx > beginIdx {
		after := strings.TrimPrefix(text[endIdx+len(end):], "\n")
		return writeDocFile(path, text[:beginIdx]+section+after)
	}

	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return writeDocFile(path, text+"\n"+section)
}

// hasExistingProject reports whether the output directory already holds a
// documentation project of the given format.
func hasExistingProject(dir, format string) bool {
	var markers []string
	if format == "sphinx" {
		markers = []string{"conf.py", "source/conf.py"}
	} else {
		markers = []string{"docusaurus.config.js", "docusaurus.config.ts", "sidebars.js"}
	}
	for _, m := range markers {
		if _, err := os.Stat(dir + string(os.PathSeparator) + m); err == nil {
			return true
		}
	}
	return false
}
