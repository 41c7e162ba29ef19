package cmdparse

const (
	// VerbSet, VerbClear and VerbToggle are the recognised command verbs.
	VerbSet    = "set"
	VerbClear  = "clear"
	VerbToggle = "toggle"

	// CommentPrefix starts a line that is skipped without being counted.
	CommentPrefix = "#"

	// maxLineLen bounds a single command line. The longest command,
	// "toggle 4294967295 4294967295", is far shorter; longer lines are
	// skipped whole.
	maxLineLen = 4096

	// coordBits is the width of a coordinate.
	coordBits = 32
)
