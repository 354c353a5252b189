package extract

import (
	"strings"

	"github.com/joseph-ayodele/summary-extractor/constants"
	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/sanitizer"
)

const (
	// workflowLookahead is how many lines after a remaining-files line may
	// hold the workflow line, the start line included.
	workflowLookahead = 10
	// maxBlockLines caps a block window.
	maxBlockLines = 20
)

// Parser locates summary blocks in sanitized text and assembles records.
// It is stateless apart from its sanitizer and safe for concurrent use.
type Parser struct {
	sanitizer *sanitizer.Sanitizer
}

func NewParser(s *sanitizer.Sanitizer) *Parser {
	if s == nil {
		s = sanitizer.Default()
	}
	return &Parser{sanitizer: s}
}

var defaultParser = NewParser(nil)

// ParseAllSummaryBlocks uses the default sanitizer configuration.
func ParseAllSummaryBlocks(content string) ([]Record, error) {
	return defaultParser.ParseAllSummaryBlocks(content)
}

// ParseFileContent uses the default sanitizer configuration.
func ParseFileContent(content string) (Record, error) {
	return defaultParser.ParseFileContent(content)
}

// ParseAllSummaryBlocks returns one record per summary block, in document
// order. Any block that cannot be fully assembled fails the whole call.
func (p *Parser) ParseAllSummaryBlocks(content string) ([]Record, error) {
	doc, err := p.prepare(content)
	if err != nil {
		return nil, err
	}
	starts := doc.blockStarts()
	if len(starts) == 0 {
		return nil, common.NewParsingError("No summary block found")
	}

	records := make([]Record, 0, len(starts))
	for k, start := range starts {
		end := len(doc.lines)
		if k+1 < len(starts) {
			end = starts[k+1]
		}
		end = min(end, start+maxBlockLines)
		rec, err := assemble(doc.lines[start:end])
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseFileContent returns the record of the last summary block in content.
func (p *Parser) ParseFileContent(content string) (Record, error) {
	doc, err := p.prepare(content)
	if err != nil {
		return Record{}, err
	}
	for i := len(doc.lines) - 1; i >= 0; i-- {
		if doc.isBlockStart(i) {
			end := min(len(doc.lines), i+maxBlockLines)
			return assemble(doc.lines[i:end])
		}
	}
	return Record{}, common.NewParsingError("No summary block found")
}

// prepare runs the sanitizer; a rejected input surfaces its validation error.
func (p *Parser) prepare(content string) (*document, error) {
	res, err := p.sanitizer.ValidateAndSanitize(content)
	if err != nil {
		return nil, err
	}
	text := res.SanitizedContent
	if text == "" {
		text = content
	}
	raw := strings.Split(text, "\n")
	doc := &document{
		lines:  make([]string, len(raw)),
		folded: make([]string, len(raw)),
	}
	for i, l := range raw {
		doc.lines[i] = strings.TrimSpace(l)
		doc.folded[i] = constants.FoldMarker(doc.lines[i])
	}
	return doc, nil
}

// document holds trimmed lines and their folded marker forms.
type document struct {
	lines  []string
	folded []string
}

func (d *document) blockStarts() []int {
	var starts []int
	for i := range d.lines {
		if d.isBlockStart(i) {
			starts = append(starts, i)
		}
	}
	return starts
}

// isBlockStart: a remaining-files line followed, within the lookahead, by a
// workflow line carrying an AUTO- token.
func (d *document) isBlockStart(i int) bool {
	if !constants.HasFoldedMarker(d.folded[i], constants.FieldRemainingFileCount) {
		return false
	}
	last := min(i+workflowLookahead, len(d.lines)-1)
	for j := i; j <= last; j++ {
		if strings.Contains(d.lines[j], constants.WorkflowToken) &&
			constants.HasFoldedMarker(d.folded[j], constants.FieldWorkflowID) {
			return true
		}
	}
	return false
}

// assemble runs every extractor over every line of the window. The first
// value found for a field wins; the first extractor error fails the block.
func assemble(window []string) (rec Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, err = Record{}, common.NewParsingError("")
		}
	}()

	acc := newPartial()
	for _, line := range window {
		if acc.count == nil {
			n, ok, err := ExtractRemainingFileCount(line)
			if err != nil {
				return Record{}, common.WrapParsingError(err)
			}
			if ok {
				acc.count = &n
			}
		}
		for _, fx := range stringExtractors {
			if _, done := acc.fields[fx.field]; done {
				continue
			}
			v, ok, err := fx.fn(line)
			if err != nil {
				return Record{}, common.WrapParsingError(err)
			}
			if ok {
				acc.fields[fx.field] = v
			}
		}
	}

	if missing := acc.missing(); len(missing) > 0 {
		return Record{}, common.NewParsingError("Missing required fields: " + strings.Join(missing, ", "))
	}
	return acc.record(), nil
}

var stringExtractors = []struct {
	field constants.Field
	fn    func(string) (string, bool, error)
}{
	{constants.FieldWorkflowID, ExtractWorkflowID},
	{constants.FieldProjectName, ExtractProjectName},
	{constants.FieldFolderNumber, ExtractFolderNumber},
	{constants.FieldDepositDate, ExtractDepositDate},
}
