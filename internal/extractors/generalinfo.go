package extractors

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/records-ingest/constants"
	"github.com/joseph-ayodele/records-ingest/internal/common"
	"github.com/joseph-ayodele/records-ingest/internal/dispatch"
	"github.com/joseph-ayodele/records-ingest/internal/entity"
	"github.com/joseph-ayodele/records-ingest/internal/grid"
)

// infoHeadings maps section headings to info types, most specific first.
var infoHeadings = []struct {
	heading  string
	infoType string
}{
	{"CORE VALUES", "core_values"},
	{"OBJECTIVES", "objectives"},
	{"MISSION", "mission"},
	{"VISION", "vision"},
	{"HISTORY", "history"},
	{"HYMN", "hymn"},
}

// infoTypeGeneral holds text that sits under no known heading.
const infoTypeGeneral = "general"

// maxHeadingLen keeps long paragraphs that merely mention "mission" from
// being read as headings.
const maxHeadingLen = 60

// ExtractGeneralInfo splits an institutional document into sections by
// heading. Text before the first heading is kept only when no heading is
// found, typed by the file name if possible.
func ExtractGeneralInfo(_ context.Context, env *dispatch.Env, doc *grid.Document) (*entity.ExtractionResult, error) {
	text := strings.TrimSpace(doc.FlatText())
	name := baseName(doc)
	if text == "" {
		env.Logger.Warn("generalinfo: document is empty", "filename", name)
		return nil, nil
	}

	sections := SplitSections(text)
	if len(sections) == 0 {
		infoType := infoTypeGeneral
		if t, _ := headingType(strings.TrimSuffix(name, filepath.Ext(name))); t != "" {
			infoType = t
		}
		sections = []entity.InfoSection{{InfoType: infoType, Title: sectionTitle(infoType), Content: text}}
	}

	types := make([]string, 0, len(sections))
	for _, s := range sections {
		types = append(types, s.InfoType)
	}
	info := entity.GeneralInfo{Sections: sections}
	return &entity.ExtractionResult{
		Department: constants.DeptAdmin,
		Payload:    info,
		Metadata: map[string]any{
			"info_types":      strings.Join(types, ", "),
			"section_count":   len(sections),
			"character_count": len(text),
			"data_type":       "general_info",
			"source_file":     name,
		},
		FormattedText: FormatGeneralInfo(info),
		SourceFile:    name,
	}, nil
}

// StoreGeneralInfo keeps one record per info type; a newer upload replaces
// the stored section of the same type. It returns the first record ID.
func StoreGeneralInfo(ctx context.Context, env *dispatch.Env, res *entity.ExtractionResult) (string, error) {
	info, ok := res.Payload.(entity.GeneralInfo)
	if !ok {
		return "", fmt.Errorf("%w: general info payload has type %T", common.ErrInternal, res.Payload)
	}
	var first string
	for _, sec := range info.Sections {
		part := *res
		part.Key = sec.InfoType
		part.Payload = entity.GeneralInfo{Sections: []entity.InfoSection{sec}}
		part.FormattedText = FormatGeneralInfo(part.Payload.(entity.GeneralInfo))
		part.Metadata = map[string]any{
			"info_type":       sec.InfoType,
			"character_count": len(sec.Content),
			"data_type":       "general_info",
			"source_file":     res.SourceFile,
		}
		id, err := storeByKey(ctx, env, &part)
		if err != nil {
			return "", err
		}
		if first == "" {
			first = id
		}
	}
	return first, nil
}

// SplitSections cuts text at heading lines. A heading line may carry content
// after a colon ("MISSION: To serve ..."). Repeated headings are merged.
func SplitSections(text string) []entity.InfoSection {
	var (
		out     []entity.InfoSection
		index   = map[string]int{}
		current = -1
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if t, rest := headingType(line); t != "" {
			i, seen := index[t]
			if !seen {
				out = append(out, entity.InfoSection{InfoType: t, Title: sectionTitle(t)})
				i = len(out) - 1
				index[t] = i
			}
			current = i
			line = rest
			if line == "" {
				continue
			}
		}
		if current < 0 {
			continue
		}
		if out[current].Content != "" {
			out[current].Content += "\n"
		}
		out[current].Content += line
	}

	kept := out[:0]
	for _, s := range out {
		if s.Content != "" {
			kept = append(kept, s)
		}
	}
	return kept
}

// headingType reports whether line is a heading and returns its info type
// and any text following a colon.
func headingType(line string) (string, string) {
	head, rest, hasColon := strings.Cut(line, ":")
	if !hasColon && len(line) > maxHeadingLen {
		return "", ""
	}
	if len(head) > maxHeadingLen {
		return "", ""
	}
	upper := strings.ToUpper(head)
	for _, h := range infoHeadings {
		if strings.Contains(upper, h.heading) {
			return h.infoType, strings.TrimSpace(rest)
		}
	}
	return "", ""
}

func sectionTitle(infoType string) string {
	return strings.ToUpper(strings.ReplaceAll(infoType, "_", " "))
}

// FormatGeneralInfo renders the sections as plain text.
func FormatGeneralInfo(info entity.GeneralInfo) string {
	var b strings.Builder
	for _, s := range info.Sections {
		fmt.Fprintf(&b, "%s\n%s\n\n", s.Title, s.Content)
	}
	return strings.TrimSpace(b.String())
}
