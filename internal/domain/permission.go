package domain

// Level is a share permission level. Levels form a total order:
// read < edit < admin. Resource owners act at LevelAdmin.
type Level string

const (
	LevelRead  Level = "read"
	LevelEdit  Level = "edit"
	LevelAdmin Level = "admin"
)

func (l Level) rank() int {
	switch l {
	case LevelRead:
		return 1
	case LevelEdit:
		return 2
	case LevelAdmin:
		return 3
	default:
		return 0
	}
}

func (l Level) AtLeast(need Level) bool {
	return l.rank() >= need.rank()
}

// ParseLevel normalizes a stored level string. "owner" is kept by some
// share rows for historical reasons and maps to the maximum level.
func ParseLevel(s string) (Level, bool) {
	switch Level(s) {
	case LevelRead, LevelEdit, LevelAdmin:
		return Level(s), true
	case "owner":
		return LevelAdmin, true
	default:
		return "", false
	}
}
