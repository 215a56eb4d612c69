package scene

import "fmt"

// Entity is a handle into a World. The generation tells a live entity from a
// despawned one that reused the same index.
type Entity struct {
	index      uint32
	generation uint32
}

// NullEntity never refers to a live entity.
var NullEntity = Entity{}

func (e Entity) Index() uint32 {
	return e.index
}

func (e Entity) String() string {
	return fmt.Sprintf("entity(%d:%d)", e.index, e.generation)
}
