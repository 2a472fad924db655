package reanalyze

import (
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Extensions the upload path accepts; anything else in the library directory
// is ignored by re-analysis.
var supportedExtensions = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".ogg":  {},
	".flac": {},
	".m4a":  {},
}

// orderCandidates filters names down to supported audio assets and sorts them
// by the numeric key at the start of the file stem. Stems without a numeric
// key sort after all numeric ones; ties and non-numeric names order
// lexicographically, giving a total order.
func orderCandidates(names []string) []string {
	candidates := make([]string, 0, len(names))
	for _, name := range names {
		ext := strings.ToLower(filepath.Ext(name))
		if _, ok := supportedExtensions[ext]; ok {
			candidates = append(candidates, name)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ki, iNumeric := numericKey(candidates[i])
		kj, jNumeric := numericKey(candidates[j])
		switch {
		case iNumeric && jNumeric:
			if ki != kj {
				return ki < kj
			}
			return candidates[i] < candidates[j]
		case iNumeric:
			return true
		case jNumeric:
			return false
		default:
			return candidates[i] < candidates[j]
		}
	})

	return candidates
}

// numericKey extracts the leading digit run of the file stem.
func numericKey(name string) (int64, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	end := 0
	for end < len(stem) && stem[end] >= '0' && stem[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	key, err := strconv.ParseInt(stem[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return key, true
}
