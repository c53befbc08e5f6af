package scene

// Id identifies a layer, sprite, or group within a scene.
//
// Ids minted by a client before server confirmation are strictly negative
// and only meaningful inside the minting replica. Ids assigned by the
// authoritative replica are strictly positive and valid everywhere. Zero
// means "no id".
type Id int64

// IdNone is the zero id, used where an id is absent.
const IdNone Id = 0

// Local reports whether the id was minted by a client and is not yet
// confirmed by the server.
func (id Id) Local() bool {
	return id < 0
}

// Canonical reports whether the id was assigned by the authoritative
// replica.
func (id Id) Canonical() bool {
	return id > 0
}
