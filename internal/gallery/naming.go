package gallery

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-attendance/internal/constants"
)

// Naming selects how Put numbers new slots.
type Naming string

const (
	// NamingAppend continues after the highest existing slot so earlier images are kept.
	NamingAppend Naming = "append"
	// NamingOverwrite restarts at foto1.jpg on every Put, replacing earlier slots.
	NamingOverwrite Naming = "overwrite"
)

// ParseNaming converts a config value to a Naming.
func ParseNaming(s string) (Naming, error) {
	switch Naming(strings.ToLower(s)) {
	case NamingAppend, "":
		return NamingAppend, nil
	case NamingOverwrite:
		return NamingOverwrite, nil
	}
	return "", fmt.Errorf("unknown gallery naming %q", s)
}

// slotName returns the file name of the 1-based slot index.
func slotName(index int) string {
	return constants.GallerySlotPrefix + strconv.Itoa(index) + constants.GallerySlotExt
}

// slotIndex parses a slot file name, returning false for anything else.
func slotIndex(name string) (int, bool) {
	if !strings.HasPrefix(name, constants.GallerySlotPrefix) || !strings.HasSuffix(name, constants.GallerySlotExt) {
		return 0, false
	}
	digits := strings.TrimSuffix(strings.TrimPrefix(name, constants.GallerySlotPrefix), constants.GallerySlotExt)
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// allocateSlots returns n slot names following the existing ones under the given policy.
func allocateSlots(existing []string, n int, naming Naming) []string {
	start := 1
	if naming != NamingOverwrite {
		for _, name := range existing {
			if idx, ok := slotIndex(name); ok && idx >= start {
				start = idx + 1
			}
		}
	}

	names := make([]string, n)
	for i := range n {
		names[i] = slotName(start + i)
	}
	return names
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tif":  true,
	".tiff": true,
}

// IsImageName reports whether a file name looks like a supported image. Hidden entries
// (including in-flight temp files) and unknown extensions are skipped.
func IsImageName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return imageExtensions[strings.ToLower(path.Ext(name))]
}

// sortNames orders slot names numerically (foto2 before foto10) and places
// any other image names after them alphabetically.
func sortNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		a, aok := slotIndex(names[i])
		b, bok := slotIndex(names[j])
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return names[i] < names[j]
		}
	})
}
