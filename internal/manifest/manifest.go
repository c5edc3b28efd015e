// Package manifest loads offline generation runs described in YAML.
//
//	name: Cool Cats
//	size: 100
//	seed: 42
//	canvas: {width: 512, height: 512}
//	categories:
//	  - name: Background
//	    traits:
//	      - {name: Red, file: bg/red.png, rarity: 50}
//	      - {name: Blue, file: bg/blue.png, rarity: 50}
//	  - name: Hat
//	    traits:
//	      - name: Crown
//	        file: hat/crown.png
//	        rarity: 100
//	        rules:
//	          - {type: doesnt_mix, targets: [Background/Red]}
//
// Category order in the file is the z-order unless a category sets order.
// Rule targets are written as "Category/Trait".
package manifest

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
	"github.com/yungbote/traitforge-backend/internal/engine"
)

type Manifest struct {
	Name       string         `yaml:"name"`
	Size       int            `yaml:"size"`
	Seed       uint64         `yaml:"seed"`
	Canvas     Canvas         `yaml:"canvas"`
	Categories []CategorySpec `yaml:"categories"`

	// dir is where relative trait files are resolved from.
	dir string
}

type Canvas struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type CategorySpec struct {
	Name   string      `yaml:"name"`
	Order  *int        `yaml:"order"`
	Traits []TraitSpec `yaml:"traits"`
}

type TraitSpec struct {
	Name   string     `yaml:"name"`
	File   string     `yaml:"file"`
	Rarity int        `yaml:"rarity"`
	Rules  []RuleSpec `yaml:"rules"`
}

type RuleSpec struct {
	Type    string   `yaml:"type"`
	Targets []string `yaml:"targets"`
	Value   int      `yaml:"value"`
}

func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if strings.TrimSpace(m.Name) == "" {
		m.Name = "Collection"
	}
	if m.Canvas.Width <= 0 {
		m.Canvas.Width = collection.DefaultCanvasWidth
	}
	if m.Canvas.Height <= 0 {
		m.Canvas.Height = collection.DefaultCanvasHeight
	}
	if len(m.Categories) == 0 {
		return nil, fmt.Errorf("%w: manifest has no categories", collection.ErrInvalid)
	}
	return &m, nil
}

// Resolve turns the manifest into registry categories: trait files are
// read into data URIs and "Category/Trait" targets become variant ids.
func (m *Manifest) Resolve() ([]collection.TraitCategory, error) {
	ids := make(map[string]string)
	for ci, c := range m.Categories {
		for ti, t := range c.Traits {
			key := traitKey(c.Name, t.Name)
			if _, dup := ids[key]; dup {
				return nil, fmt.Errorf("%w: duplicate trait %q", collection.ErrInvalid, key)
			}
			ids[key] = fmt.Sprintf("trait-%d-%d", ci, ti)
		}
	}

	out := make([]collection.TraitCategory, 0, len(m.Categories))
	for ci, c := range m.Categories {
		order := ci
		if c.Order != nil {
			order = *c.Order
		}
		cat := collection.TraitCategory{
			ID:     fmt.Sprintf("category-%d", ci),
			Name:   c.Name,
			Order:  order,
			Images: make([]collection.TraitVariant, 0, len(c.Traits)),
		}
		for _, t := range c.Traits {
			payload, err := m.readTrait(t.File)
			if err != nil {
				return nil, fmt.Errorf("trait %q: %w", traitKey(c.Name, t.Name), err)
			}
			rarity := t.Rarity
			if rarity == 0 {
				rarity = 1
			}
			v := collection.TraitVariant{
				ID:     ids[traitKey(c.Name, t.Name)],
				Name:   t.Name,
				Image:  payload,
				Rarity: rarity,
			}
			for ri, r := range t.Rules {
				rule := collection.Rule{
					ID:    fmt.Sprintf("%s-rule-%d", v.ID, ri),
					Type:  collection.RuleKind(strings.TrimSpace(r.Type)),
					Value: r.Value,
				}
				for _, target := range r.Targets {
					id, ok := ids[normalizeKey(target)]
					if !ok {
						return nil, fmt.Errorf("%w: trait %q targets unknown trait %q", collection.ErrInvalid, traitKey(c.Name, t.Name), target)
					}
					rule.TargetTraitIDs = append(rule.TargetTraitIDs, id)
				}
				v.Rules = append(v.Rules, rule)
			}
			cat.Images = append(cat.Images, v)
		}
		out = append(out, cat)
	}
	if err := collection.ValidateCategories(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Manifest) readTrait(file string) (string, error) {
	if strings.HasPrefix(file, "data:") {
		return file, nil
	}
	if strings.TrimSpace(file) == "" {
		return "", fmt.Errorf("%w: missing file", collection.ErrInvalid)
	}
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.dir, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		mt = http.DetectContentType(raw)
	}
	return engine.EncodeDataURL(mt, raw), nil
}

func traitKey(category, trait string) string {
	return strings.TrimSpace(category) + "/" + strings.TrimSpace(trait)
}

func normalizeKey(target string) string {
	cat, trait, _ := strings.Cut(target, "/")
	return traitKey(cat, trait)
}
