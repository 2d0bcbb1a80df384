package profile

// KeyName is the only profile fact the assistant learns today.
const KeyName = "name"

// Profile is the flat set of facts the user has told the assistant,
// persisted as a JSON object ({"name": "Anna"}).
type Profile map[string]string

// Clone returns an independent copy. A nil Profile clones to an empty one.
func (p Profile) Clone() Profile {
	cp := make(Profile, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}
