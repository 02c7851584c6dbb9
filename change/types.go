package change

// Op is the kind of mutation observed on one top-level key
type Op int

const (
	Add Op = iota
	Remove
	Update
)

func (o Op) String() string {
	switch o {
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Update:
		return "update"
	default:
		return "unknown"
	}
}

// ValueType is the coarse classification of a changed value
type ValueType int

const (
	String ValueType = iota
	Number
	Boolean
	Object
	Array
)

func (v ValueType) String() string {
	switch v {
	case String:
		return "string"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "unknown"
	}
}

// RootPath names the single change emitted when a snapshot is not composite
const RootPath = "root"

// Change describes one differing top-level key between two snapshots
type Change struct {
	Path      string
	Op        Op
	ValueType ValueType
	OldValue  any
	NewValue  any
}
