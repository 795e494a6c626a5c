package config

const (
	// MaxStudentNameLength is the maximum length for student names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxStudentNameLength = 255

	// MaxNoteLength is the maximum length for free-text annotations on
	// students and sessions.
	MaxNoteLength = 1000
)
