package sync

// Event is a change observed in the watched directory. The set of
// implementations is closed: Created, Modified, Deleted and Other.
type Event interface {
	isEvent()
}

type Created struct {
	Path string
}

type Modified struct {
	Path string
}

type Deleted struct {
	Path string
}

// Other covers renames and anything else that is not synced
type Other struct {
	Path string
	Op   string
}

func (Created) isEvent()  {}
func (Modified) isEvent() {}
func (Deleted) isEvent()  {}
func (Other) isEvent()    {}
