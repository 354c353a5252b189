package constants

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// WorkflowToken prefixes every workflow identifier in the runner output.
const WorkflowToken = "AUTO-"

// markerAliases lists, per field, the folded spellings of the line label that
// introduces it. French labels come first; the English forms are emitted by
// newer runner builds.
var markerAliases = map[Field][]string{
	FieldRemainingFileCount: {
		"nombre de fichier(s) restant(s)",
		"nombre de fichiers restants",
		"remaining file(s) count",
		"remaining files count",
	},
	FieldWorkflowID: {
		"teledemarche",
	},
	FieldProjectName: {
		"nom du projet",
		"project name",
	},
	FieldFolderNumber: {
		"numero de dossier",
		"dossier number",
	},
	FieldDepositDate: {
		"date de depot",
		"deposit date",
	},
}

// UTF-8 text decoded as Latin-1 by the runner host.
var mojibake = strings.NewReplacer(
	"Ã©", "é",
	"Ã¨", "è",
	"Ãª", "ê",
	"Ã«", "ë",
	"Ã´", "ô",
	"Ã®", "î",
	"Ã§", "ç",
	"Ã ", "à",
	"Ã¢", "â",
	"Ã»", "û",
	"Ã¹", "ù",
	"Ã‰", "É",
)

// Spellings where the accented letters were replaced outright. Applied after
// folding, so keys are lowercase.
var corruptedAliases = strings.NewReplacer(
	"t�l�d�marche", "teledemarche",
	"t?l?d?marche", "teledemarche",
	"num�ro", "numero",
	"num?ro", "numero",
	"d�p�t", "depot",
	"d?p?t", "depot",
)

// FoldMarker maps a line onto the canonical marker alphabet: mojibake is
// repaired, diacritics are dropped, case is lowered and the known corrupted
// spellings are rewritten. The result is only meant for marker lookups, never
// for value extraction.
func FoldMarker(line string) string {
	s := mojibake.Replace(line)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	return corruptedAliases.Replace(s)
}

// HasMarker reports whether line carries the label of field f.
func HasMarker(line string, f Field) bool {
	return HasFoldedMarker(FoldMarker(line), f)
}

// IsWorkflowLine reports whether line carries both the workflow label and the
// AUTO- token; such a line anchors a summary block.
func IsWorkflowLine(line string) bool {
	return strings.Contains(line, WorkflowToken) && HasMarker(line, FieldWorkflowID)
}

// HasFoldedMarker is HasMarker for a line already passed through FoldMarker.
func HasFoldedMarker(folded string, f Field) bool {
	for _, alias := range markerAliases[f] {
		if strings.Contains(folded, alias) {
			return true
		}
	}
	return false
}
