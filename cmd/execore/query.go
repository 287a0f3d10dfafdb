package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"execore/core"
)

func newQueryCmd() *cobra.Command {
	var (
		genesisPath string
		baseStr     string
		pathStr     string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "path-walk a genesis snapshot the way TrackingCopy.Query does, bypassing any cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader, _, err := loadGenesis(genesisPath)
			if err != nil {
				return err
			}
			base, err := parseKey(baseStr)
			if err != nil {
				return err
			}
			var path []string
			if pathStr != "" {
				path = strings.Split(pathStr, "/")
			}

			tc := core.NewTrackingCopy(reader, 0)
			value, err := tc.Query(0, base, path)
			if err != nil {
				return fmt.Errorf("execore: query: %w", err)
			}
			fmt.Printf("%s (%s)\n", describeValue(value), value.TypeName())
			return nil
		},
	}

	cmd.Flags().StringVar(&genesisPath, "genesis", "", "path to a genesis snapshot YAML file")
	cmd.Flags().StringVar(&baseStr, "base", "", "base key (account:<hex> | hash:<hex> | uref:<hex>:<rights>)")
	cmd.Flags().StringVar(&pathStr, "path", "", "slash-separated named-key path from base, e.g. a/b/c")
	_ = cmd.MarkFlagRequired("genesis")
	_ = cmd.MarkFlagRequired("base")
	return cmd
}

// describeValue renders a StoredValue for terminal output; CLValues decode
// their scalar contents when the type is one query results commonly surface,
// falling back to a byte count for anything richer.
func describeValue(v core.StoredValue) string {
	cv, ok := v.(core.CLValue)
	if !ok {
		return fmt.Sprintf("<%s>", v.TypeName())
	}
	switch cv.Type.Tag {
	case core.CLTString:
		s, err := cv.IntoString()
		if err == nil {
			return s
		}
	case core.CLTU64:
		u, err := cv.IntoU64()
		if err == nil {
			return fmt.Sprintf("%d", u)
		}
	case core.CLTI32:
		i, err := cv.IntoI32()
		if err == nil {
			return fmt.Sprintf("%d", i)
		}
	case core.CLTBool:
		b, err := cv.IntoBool()
		if err == nil {
			return fmt.Sprintf("%t", b)
		}
	case core.CLTKey:
		k, err := cv.IntoKey()
		if err == nil {
			return formatKey(k)
		}
	}
	return fmt.Sprintf("<%d raw bytes>", len(cv.Bytes))
}
