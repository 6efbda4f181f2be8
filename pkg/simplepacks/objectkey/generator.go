package objectkey

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultFilename is used when an upload carries no filename
const DefaultFilename = "file.bin"

// Prefix is the top-level folder for every pack asset
const Prefix = "packs"

// Generator derives bucket keys for pack assets.
//
// Assets of a named pack share the folder packs/{normalized name}/, so
// re-submitting the same name and filename overwrites the earlier object.
// Unnamed uploads land in a fresh packs/{uuid}/ folder on every call.
type Generator struct {
	// NewID returns the folder id for unnamed uploads; defaults to uuid.NewString
	NewID func() string
}

// NewGenerator creates a key generator using random UUIDv4 folders
func NewGenerator() *Generator {
	return &Generator{NewID: uuid.NewString}
}

// Key returns the object key for filename within packName's folder
func (g *Generator) Key(filename, packName string) string {
	if filename == "" {
		filename = DefaultFilename
	}

	folder := NormalizePackName(packName)
	if folder == "" {
		newID := g.NewID
		if newID == nil {
			newID = uuid.NewString
		}
		folder = newID()
	}

	return fmt.Sprintf("%s/%s/%s", Prefix, folder, filename)
}

// NormalizePackName lowercases name and replaces spaces with underscores
func NormalizePackName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}
