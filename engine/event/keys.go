package event

// Key is a keyboard key. Values match GLFW key codes, which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type Key int

const (
	KeySpace     Key = 32
	KeyA         Key = 65
	KeyB         Key = 66
	KeyC         Key = 67
	KeyD         Key = 68
	KeyE         Key = 69
	KeyI         Key = 73
	KeyP         Key = 80
	KeyQ         Key = 81
	KeyS         Key = 83
	KeyW         Key = 87
	KeyEscape    Key = 256
	KeyLeftShift Key = 340

	Key0 Key = 48
	Key1 Key = 49
	Key2 Key = 50
	Key3 Key = 51
	Key4 Key = 52
	Key5 Key = 53
	Key6 Key = 54
	Key7 Key = 55
	Key8 Key = 56
)

// MouseButton is a mouse button, numbered as in GLFW.
type MouseButton int

const (
	MouseButtonLeft   MouseButton = 0
	MouseButtonRight  MouseButton = 1
	MouseButtonMiddle MouseButton = 2
)
