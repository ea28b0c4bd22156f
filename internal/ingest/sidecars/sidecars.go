package sidecars

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanbarcelona/brybox/internal/ingest/common"
	"github.com/bryanbarcelona/brybox/internal/ingest/types"
)

// sidecarExts are the companion extensions probed in lower and upper case.
var sidecarExts = []string{".aae", ".mov", ".xmp"}

// Resolver discovers Apple companion files that travel with a photo (Live
// Photo videos, adjustment data, metadata, resource forks) and plans their
// renames. Resolver is stateless and safe for concurrent use.
//
// Four naming categories are recognized:
//   - regular:        IMG_1234.mov, IMG_1234.aae
//   - edited:         IMG_O1234.aae
//   - hidden:         ._IMG_1234.HEIC, ._IMG_1234.aae
//   - hidden edited:  ._IMG_O1234.aae
type Resolver struct{}

// NewResolver creates a new sidecar resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

// FindCompanions discovers every existing companion of imagePath. The result
// is duplicate-free and deterministically ordered: regular companions first,
// then edited adjustment data, then hidden resource forks for each stem.
func (r *Resolver) FindCompanions(imagePath string) ([]string, error) {
	stem := stemOf(imagePath)
	parent := filepath.Dir(imagePath)

	var companions []string
	seen := make(map[string]bool)
	add := func(path string) {
		if path == imagePath || seen[path] {
			return
		}
		seen[path] = true
		companions = append(companions, path)
	}

	// Regular companions share the stem and carry a known extension.
	for _, ext := range sidecarExts {
		for _, variant := range []string{ext, strings.ToUpper(ext)} {
			candidate := filepath.Join(parent, stem+variant)
			if fileExists(candidate) {
				add(candidate)
			}
		}
	}

	// Edited adjustment data uses the _O stem and only ever ships as .aae.
	oStem := editedStem(stem)
	if oStem != "" {
		for _, variant := range []string{".aae", ".AAE"} {
			candidate := filepath.Join(parent, oStem+variant)
			if fileExists(candidate) {
				add(candidate)
			}
		}
	}

	// Hidden resource forks carry a ._ prefix and keep the stem of the file
	// they describe.
	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", parent, err)
	}
	for _, s := range []string{stem, oStem} {
		if s == "" {
			continue
		}
		prefix := "._" + s + "."
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
				continue
			}
			add(filepath.Join(parent, entry.Name()))
		}
	}

	return companions, nil
}

// PlanRenames computes the new bare filename for every companion of
// imagePath once the primary is renamed to newStem. A companion that matches
// none of the known naming categories fails the whole plan with an error
// wrapping common.ErrUnrecognizedPattern.
func (r *Resolver) PlanRenames(imagePath, newStem string) ([]types.SidecarRename, error) {
	companions, err := r.FindCompanions(imagePath)
	if err != nil {
		return nil, err
	}

	stem := stemOf(imagePath)
	oStem := editedStem(stem)
	newOStem := ""
	if oStem != "" {
		newOStem = editedStem(newStem)
		if newOStem == "" {
			newOStem = newStem
		}
	}

	renames := make([]types.SidecarRename, 0, len(companions))
	for _, companion := range companions {
		newName, err := planRename(filepath.Base(companion), stem, oStem, newStem, newOStem)
		if err != nil {
			return nil, err
		}
		renames = append(renames, types.SidecarRename{Original: companion, NewName: newName})
	}

	return renames, nil
}

// planRename matches one companion filename against the naming categories,
// most specific first. Hidden patterns are checked before visible ones so
// that the ._ prefix survives the rename.
func planRename(name, stem, oStem, newStem, newOStem string) (string, error) {
	switch {
	case strings.HasPrefix(name, "._"+stem):
		return "._" + newStem + name[len("._"+stem):], nil
	case oStem != "" && strings.HasPrefix(name, "._"+oStem):
		return "._" + newOStem + name[len("._"+oStem):], nil
	case oStem != "" && strings.HasPrefix(name, oStem):
		return newOStem + name[len(oStem):], nil
	case strings.HasPrefix(name, stem):
		return newStem + name[len(stem):], nil
	default:
		return "", fmt.Errorf("%w: %s (stem %s)", common.ErrUnrecognizedPattern, name, stem)
	}
}

// editedStem returns the _O variant of a stem ("IMG_1234" becomes
// "IMG_O1234"), or "" when the stem carries no underscore.
func editedStem(stem string) string {
	i := strings.Index(stem, "_")
	if i < 0 {
		return ""
	}
	return stem[:i] + "_O" + stem[i+1:]
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
