package page

import "strings"

const fallbackTitle = "video"

var unsafeNameChars = strings.NewReplacer(
	":", " -",
	"/", "-",
	"\\", "-",
	"?", "",
	"*", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "-",
	"\x00", "",
)

// OutputName builds the default output file name "<date> <title>.mp4".
// An empty date drops the prefix and an empty title becomes "video".
func OutputName(publishDate, title string) string {
	title = SanitizeFilename(title)
	if title == "" {
		title = fallbackTitle
	}
	if publishDate != "" {
		title = publishDate + " " + title
	}
	return title + ".mp4"
}

// SanitizeFilename replaces characters that are unsafe in file names on common
// file systems.
func SanitizeFilename(name string) string {
	name = unsafeNameChars.Replace(name)
	name = strings.Join(strings.Fields(name), " ")
	return strings.Trim(name, " .")
}
