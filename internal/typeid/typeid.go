package typeid

import (
	"errors"
	"fmt"

	"go.jetify.com/typeid/v2"
)

var ErrInvalid = errors.New("invalid id")

const (
	PrefixUser      = "user"
	PrefixProject   = "proj"
	PrefixSnapshot  = "snap"
	PrefixObject    = "obj"
	PrefixComponent = "comp"
	PrefixAsset     = "asset"
)

func New(prefix string) string {
	return typeid.MustGenerate(prefix).String()
}

func NewUserID() string      { return New(PrefixUser) }
func NewProjectID() string   { return New(PrefixProject) }
func NewSnapshotID() string  { return New(PrefixSnapshot) }
func NewObjectID() string    { return New(PrefixObject) }
func NewComponentID() string { return New(PrefixComponent) }
func NewAssetID() string     { return New(PrefixAsset) }

// Validate reports whether id parses as a typeid carrying prefix. Failures
// wrap ErrInvalid.
func Validate(id, prefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalid, id, err)
	}
	if got := parsed.Prefix(); got != prefix {
		return fmt.Errorf("%w %q: prefix %q, want %q", ErrInvalid, id, got, prefix)
	}
	return nil
}
