package trending

import (
	"fmt"
	"strings"
)

const (
	// ScrollAmount is the horizontal distance of one scroll step in pixels.
	ScrollAmount = 300
	// ContainerID names the scrollable trending list in the page.
	ContainerID = "trending-container"
)

// Direction is a horizontal scroll direction.
type Direction int

const (
	Left  Direction = -1
	Right Direction = 1
)

// ParseDirection accepts "left"/"right" or "-1"/"1".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "-1":
		return Left, nil
	case "right", "1", "+1":
		return Right, nil
	}
	return 0, fmt.Errorf("invalid scroll direction %q", s)
}

// ScrollIntent asks the presentation layer to scroll a container.
type ScrollIntent struct {
	Container string `json:"container"`
	Delta     int    `json:"delta"`
	Behavior  string `json:"behavior"`
}

// Scroller is implemented by the presentation layer.
type Scroller interface {
	Scroll(intent ScrollIntent) error
}

// Scroll sends a smoothed scroll of one step in dir to s.
func Scroll(s Scroller, dir Direction) error {
	if dir != Left && dir != Right {
		return fmt.Errorf("invalid scroll direction %d", dir)
	}
	return s.Scroll(ScrollIntent{
		Container: ContainerID,
		Delta:     int(dir) * ScrollAmount,
		Behavior:  "smooth",
	})
}
