package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yungbote/traitforge-backend/internal/domain/collection"
	"github.com/yungbote/traitforge-backend/internal/engine"
	"github.com/yungbote/traitforge-backend/internal/manifest"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	var manifestPath string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Parse a manifest and report its categories and rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := root.logger()
			if err != nil {
				return err
			}
			defer log.Sync()

			m, err := manifest.Load(manifestPath)
			if err != nil {
				return err
			}
			cats, err := m.Resolve()
			if err != nil {
				return err
			}
			reg := engine.NewRegistry(cats)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: size=%d canvas=%dx%d\n", m.Name, m.Size, m.Canvas.Width, m.Canvas.Height)
			for _, c := range reg.Categories() {
				rules := 0
				variants := engine.Variants(c)
				for _, v := range variants {
					rules += len(v.Rules)
				}
				fmt.Fprintf(out, "  [%d] %s: %d traits, %d rules\n", c.Order, c.Name, len(variants), rules)
				for _, v := range variants {
					for _, r := range v.Rules {
						fmt.Fprintf(out, "    %s: %s%s\n", v.Name, r.Type.Label(), describeRule(reg, r))
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "collection.yaml", "path to the collection manifest")
	return cmd
}

func describeRule(reg *engine.Registry, r collection.Rule) string {
	if r.Type == collection.RuleAppearsAtLeast {
		return fmt.Sprintf(" %d", r.Value)
	}
	names := make([]string, 0, len(r.TargetTraitIDs))
	for _, id := range r.TargetTraitIDs {
		if v, ok := reg.Variant(id); ok {
			names = append(names, v.Name)
		}
	}
	return " " + strings.Join(names, ", ")
}
