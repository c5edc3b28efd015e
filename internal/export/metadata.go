package export

import (
	"fmt"
	"regexp"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
)

type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Metadata is the per-item JSON document shipped next to each image.
type Metadata struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// BuildMetadata describes the item at zero-based index within the named collection.
func BuildMetadata(collectionName string, index int, item collection.GeneratedItem) Metadata {
	n := index + 1
	attrs := make([]Attribute, 0, len(item.Traits))
	for _, t := range item.Traits {
		attrs = append(attrs, Attribute{TraitType: t.Category, Value: t.Trait})
	}
	return Metadata{
		Name:        fmt.Sprintf("%s #%d", collectionName, n),
		Description: "NFT from " + collectionName,
		Image:       fmt.Sprintf("%d.png", n),
		Attributes:  attrs,
	}
}

var whitespace = regexp.MustCompile(`\s+`)

func safeName(name string) string {
	return whitespace.ReplaceAllString(name, "_")
}

// ArchiveName is the download name of a collection's zip.
func ArchiveName(collectionName string) string {
	return safeName(collectionName) + ".zip"
}

// ItemFileName is the download name of a single item image.
func ItemFileName(collectionName string, index int) string {
	return fmt.Sprintf("%s_%d.png", safeName(collectionName), index+1)
}
