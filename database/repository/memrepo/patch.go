package memrepo

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// applySet emulates a Mongo $set with dotted paths by round-tripping the
// document through BSON.
func applySet(doc interface{}, set bson.M) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return err
	}
	for path, v := range set {
		parts := strings.Split(path, ".")
		cur := m
		for _, p := range parts[:len(parts)-1] {
			var next bson.M
			switch v := cur[p].(type) {
			case bson.M:
				next = v
			case bson.D:
				next = v.Map()
			default:
				next = bson.M{}
			}
			cur[p] = next
			cur = next
		}
		cur[parts[len(parts)-1]] = v
	}
	raw, err = bson.Marshal(m)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, doc)
}
