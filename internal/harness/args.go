package harness

import (
	"fmt"

	"github.com/fluxsocial/socialdna/internal/model"
	"github.com/fluxsocial/socialdna/internal/page"
)

// args are the decoded YAML arguments of one step.
type args map[string]any

func (a args) str(key string) (string, error) {
	v, ok := a[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string, got %T", key, v)
	}
	return s, nil
}

func (a args) optStr(key string) string {
	s, _ := a[key].(string)
	return s
}

func (a args) identity(key string) (model.Identity, error) {
	s, err := a.str(key)
	return model.Identity(s), err
}

func (a args) optIdentity(key string) *model.Identity {
	s, ok := a[key].(string)
	if !ok {
		return nil
	}
	id := model.Identity(s)
	return &id
}

func (a args) optPartition(key string) *model.PartitionID {
	s, ok := a[key].(string)
	if !ok {
		return nil
	}
	p := model.PartitionID(s)
	return &p
}

// ref accepts "partition/entry" or {partition_id, entry_hash}.
func (a args) ref(key string) (model.GlobalEntryRef, error) {
	switch v := a[key].(type) {
	case nil:
		return model.GlobalEntryRef{}, fmt.Errorf("missing argument %q", key)
	case string:
		ref, err := model.ParseRef(v)
		if err != nil {
			return model.GlobalEntryRef{}, fmt.Errorf("argument %q: %w", key, err)
		}
		return ref, nil
	case map[string]any:
		m := args(v)
		return model.Ref(model.PartitionID(m.optStr("partition_id")), model.Hash(m.optStr("entry_hash"))), nil
	default:
		return model.GlobalEntryRef{}, fmt.Errorf("argument %q must be a reference, got %T", key, v)
	}
}

func (a args) relation() model.Relation {
	return model.ParseRelation(a.optStr("relation"))
}

func (a args) integer(key string, def int) (int, error) {
	v, ok := a[key]
	if !ok {
		return def, nil
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("argument %q must be an integer, got %T", key, v)
	}
	return n, nil
}

// page reads the optional "size" and "page" arguments. Range checks are
// left to the engine.
func (a args) page() (page.Request, error) {
	size, err := a.integer("size", defaultPageSize)
	if err != nil {
		return page.Request{}, err
	}
	number, err := a.integer("page", 0)
	if err != nil {
		return page.Request{}, err
	}
	return page.New(size, number), nil
}

// content reads either "text" or "ref" plus "schema", with an optional
// "nonce".
func (a args) content() (model.Content, error) {
	text, hasText := a["text"]
	_, hasRef := a["ref"]
	var c model.Content
	switch {
	case hasText && hasRef:
		return model.Content{}, fmt.Errorf("arguments %q and %q are mutually exclusive", "text", "ref")
	case hasText:
		s, ok := text.(string)
		if !ok {
			return model.Content{}, fmt.Errorf("argument %q must be a string, got %T", "text", text)
		}
		c = model.Text(s)
	case hasRef:
		ref, err := a.str("ref")
		if err != nil {
			return model.Content{}, err
		}
		c = model.Reference(model.Hash(ref), a.optStr("schema"))
	default:
		return model.Content{}, fmt.Errorf("one of %q or %q is required", "text", "ref")
	}
	c.Nonce = a.optStr("nonce")
	return c, nil
}
