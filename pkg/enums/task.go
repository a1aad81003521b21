package enums

import "fmt"

// TaskKind separates platform-wide tasks from partner-sponsored ones.
type TaskKind string

const (
	TaskKindMain        TaskKind = "main"
	TaskKindPartnership TaskKind = "partnership"
)

var validTaskKinds = []TaskKind{TaskKindMain, TaskKindPartnership}

func (k TaskKind) IsValid() bool {
	for _, candidate := range validTaskKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func ParseTaskKind(value string) (TaskKind, error) {
	for _, candidate := range validTaskKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task kind %q", value)
}

// TaskPlatform is where the task is performed.
type TaskPlatform string

const (
	TaskPlatformTelegram TaskPlatform = "telegram"
	TaskPlatformWebsite  TaskPlatform = "website"
	TaskPlatformYouTube  TaskPlatform = "youtube"
)

var validTaskPlatforms = []TaskPlatform{
	TaskPlatformTelegram,
	TaskPlatformWebsite,
	TaskPlatformYouTube,
}

func (p TaskPlatform) IsValid() bool {
	for _, candidate := range validTaskPlatforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// AllowedFor reports whether the platform may be used with the given kind.
// Main tasks only live on telegram or a website.
func (p TaskPlatform) AllowedFor(kind TaskKind) bool {
	if !p.IsValid() {
		return false
	}
	if kind == TaskKindMain {
		return p != TaskPlatformYouTube
	}
	return true
}

func ParseTaskPlatform(value string) (TaskPlatform, error) {
	for _, candidate := range validTaskPlatforms {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid task platform %q", value)
}
