package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	md "github.com/nao1215/markdown"

	"github.com/agentstation/sightings/pkg/observations"
)

// MarkdownFormatter renders observations as markdown documents and table
// Data as markdown tables. Other values are written as a JSON code block.
type MarkdownFormatter struct {
	// UnknownTaxon titles observations that have no taxon yet.
	UnknownTaxon string
}

// Format implements the Formatter interface for markdown output.
func (f *MarkdownFormatter) Format(w io.Writer, data any) error {
	doc := md.NewMarkdown(w)

	switch v := data.(type) {
	case *observations.Observation:
		f.observation(doc, v)
	case Data:
		doc.Table(md.TableSet{Header: v.Headers, Rows: v.Rows})
	case *Data:
		doc.Table(md.TableSet{Header: v.Headers, Rows: v.Rows})
	default:
		var buf strings.Builder
		if err := (&JSONFormatter{Indent: "  "}).Format(&buf, data); err != nil {
			return err
		}
		doc.CodeBlocks(md.SyntaxHighlight("json"), buf.String())
	}

	return doc.Build()
}

func (f *MarkdownFormatter) observation(doc *md.Markdown, obs *observations.Observation) {
	title := obs.Taxon.DisplayName()
	if title == "" {
		title = f.UnknownTaxon
	}
	if title == "" {
		title = obs.UUID
	}
	doc.H1(title)

	if obs.Taxon != nil && obs.Taxon.PreferredCommonName != "" && obs.Taxon.Name != "" {
		doc.PlainText(md.Italic(obs.Taxon.Name)).LF()
	}
	for _, p := range obs.Photos {
		doc.PlainText(md.Image(title, p.URL)).LF()
	}

	facts := []string{
		md.Bold("UUID:") + " " + md.Code(obs.UUID),
	}
	if h := obs.User.Handle(); h != "" {
		facts = append(facts, md.Bold("Observer:")+" "+h)
	}
	if obs.PlaceGuess != "" {
		facts = append(facts, md.Bold("Place:")+" "+obs.PlaceGuess)
	}
	if obs.QualityGrade != "" {
		facts = append(facts, md.Bold("Quality:")+" "+obs.QualityGrade)
	}
	if !obs.CreatedAt.IsZero() {
		facts = append(facts, md.Bold("Observed:")+" "+obs.CreatedAt.Time.Format(time.RFC3339))
	}
	facts = append(facts, md.Bold("Faves:")+" "+strconv.Itoa(len(obs.Faves)))
	doc.BulletList(facts...)

	if len(obs.Identifications) > 0 {
		doc.H2("Identifications")
		rows := make([][]string, 0, len(obs.Identifications))
		for _, id := range obs.Identifications {
			rows = append(rows, []string{
				id.Taxon.DisplayName(),
				id.User.Handle(),
				dateOf(id.CreatedAt.Time),
				id.Body,
			})
		}
		doc.Table(md.TableSet{
			Header: []string{"Taxon", "User", "Added", "Body"},
			Rows:   rows,
		})
	}

	if len(obs.Comments) > 0 {
		doc.H2("Comments")
		for _, c := range obs.Comments {
			doc.PlainText(fmt.Sprintf("%s, %s", md.Bold(c.User.Handle()), dateOf(c.CreatedAt.Time))).LF()
			doc.Blockquote(c.Body)
		}
	}
}

func dateOf(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
