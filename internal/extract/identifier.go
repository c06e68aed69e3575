package extract

import (
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/order-tracker/constants"
)

// idStrategy looks for a document identifier in the page text or the file stem.
type idStrategy struct {
	name  string
	match func(text, stem string) (string, bool)
}

var (
	reOrderNoColon  = regexp.MustCompile(`订单号[:：]\s*(\d+)`)
	reOrderNoFiller = regexp.MustCompile(`订单号.*?(\d{8,})`)
	reOrderInfix    = regexp.MustCompile(`订单.*?号[：:]\s*(\d+)`)
	reBareOrderID   = regexp.MustCompile(regexp.QuoteMeta(constants.OrderIDPrefix) + `\d{6}`)
)

// idStrategies are tried in order; the first hit wins.
var idStrategies = []idStrategy{
	{name: "label_colon", match: textOnly(submatch(reOrderNoColon))},
	{name: "label_filler", match: textOnly(submatch(reOrderNoFiller))},
	{name: "label_infix", match: textOnly(submatch(reOrderInfix))},
	{name: "bare_number", match: textOnly(matchBareOrderID)},
	{name: "filename", match: matchSeriesFilename},
}

// ResolveDocumentID returns the order identifier for a page. It never
// fails: when nothing matches the result is constants.UnknownDocumentID.
func ResolveDocumentID(text, filename string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}
	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	for _, s := range idStrategies {
		id, ok := s.match(text, stem)
		if !ok {
			continue
		}
		if s.name == "filename" {
			logger.Warn("order number not found in text, using filename", "file", filename, "document_id", id)
		} else {
			logger.Debug("order number resolved", "file", filename, "strategy", s.name, "document_id", id)
		}
		return id
	}
	logger.Warn("order number not found", "file", filename)
	return constants.UnknownDocumentID
}

func textOnly(f func(string) (string, bool)) func(string, string) (string, bool) {
	return func(text, _ string) (string, bool) { return f(text) }
}

func submatch(re *regexp.Regexp) func(string) (string, bool) {
	return func(text string) (string, bool) {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			return "", false
		}
		return m[1], true
	}
}

// matchBareOrderID finds the first 27xxxxxx run that is not directly
// preceded by the word for "product". A rejected candidate resumes the
// search one byte further, so overlapping candidates are still seen.
func matchBareOrderID(text string) (string, bool) {
	for off := 0; off < len(text); {
		loc := reBareOrderID.FindStringIndex(text[off:])
		if loc == nil {
			return "", false
		}
		start, end := off+loc[0], off+loc[1]
		if !strings.HasSuffix(text[:start], constants.OrderIDForbiddenPrefix) {
			return text[start:end], true
		}
		off = start + 1
	}
	return "", false
}

func matchSeriesFilename(_, stem string) (string, bool) {
	if strings.HasPrefix(stem, constants.DocumentSeriesPrefix) {
		return stem, true
	}
	return "", false
}
